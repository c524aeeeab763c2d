package biz

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/knowledge/metrics"
	"github.com/lexfisc/lexfisc/internal/knowledge/store"
	"github.com/lexfisc/lexfisc/internal/knowledge/vector"
	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/llm"
	"github.com/lexfisc/lexfisc/pkg/utils/errors"
	"github.com/lexfisc/lexfisc/pkg/utils/id"
	"github.com/lexfisc/lexfisc/pkg/utils/json"
)

// UploadRequest describes a document upload.
type UploadRequest struct {
	TenantID *string
	Title    string
	FileName string
	Data     io.Reader
}

// Service is the knowledge service facade consumed by the handler layer.
type Service interface {
	// UploadDocument stores the uploaded file, registers the document and
	// starts its first ingestion run.
	UploadDocument(ctx context.Context, req *UploadRequest) (*model.Document, *model.IngestJob, error)
	// StartIngest starts an ingestion run for an existing document.
	StartIngest(ctx context.Context, documentID string) (*model.IngestJob, error)
	// JobStatus returns an ingest job by ID.
	JobStatus(ctx context.Context, jobID string) (*model.IngestJob, error)
	// Ask answers a question grounded in the tenant-visible corpus.
	Ask(ctx context.Context, tenantID *string, question string) (*model.Answer, error)
	// ListDocuments lists tenant-visible documents.
	ListDocuments(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.Document, error)
	// DeleteDocument removes a document with its chunks, jobs and vectors.
	DeleteDocument(ctx context.Context, documentID string) error
	// ListSessions lists a tenant's QA sessions.
	ListSessions(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.QASession, error)
	// Stats returns knowledge base statistics.
	Stats(ctx context.Context) (map[string]any, error)
	// Health probes the service's dependencies.
	Health(ctx context.Context) map[string]string
}

// ServiceConfig tunes the query path.
type ServiceConfig struct {
	TopK     int
	MinScore float32
	DataDir  string
}

type knowledgeService struct {
	factory     store.Factory
	index       vector.Index
	embedder    llm.EmbeddingProvider
	ingestor    *Ingestor
	synthesizer *Synthesizer
	cfg         ServiceConfig
	metrics     *metrics.Metrics
}

// NewService wires the knowledge service.
func NewService(factory store.Factory, index vector.Index, embedder llm.EmbeddingProvider, ingestor *Ingestor, synthesizer *Synthesizer, cfg ServiceConfig) Service {
	return &knowledgeService{
		factory:     factory,
		index:       index,
		embedder:    embedder,
		ingestor:    ingestor,
		synthesizer: synthesizer,
		cfg:         cfg,
		metrics:     metrics.Get(),
	}
}

func (s *knowledgeService) UploadDocument(ctx context.Context, req *UploadRequest) (*model.Document, *model.IngestJob, error) {
	if req == nil || req.Data == nil {
		return nil, nil, errors.ErrKnowledgeInvalidUpload.WithMessage("upload body is empty")
	}

	docID := id.New()
	path, hash, err := s.saveUpload(docID, req.Data)
	if err != nil {
		return nil, nil, errors.ErrKnowledgeInvalidUpload.WithCause(err)
	}

	if existing, err := s.factory.Documents().GetByHash(ctx, req.TenantID, hash); err == nil {
		_ = os.Remove(path)
		return nil, nil, errors.ErrConflict.WithMessagef(
			"identical document already exists as %s (%s)", existing.ID, existing.Title)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(req.FileName), filepath.Ext(req.FileName))
	}
	if title == "" {
		title = docID
	}

	doc := &model.Document{
		ID:       docID,
		TenantID: req.TenantID,
		Title:    title,
		Source:   path,
		Hash:     hash,
		Status:   model.DocumentStatusPending,
	}
	if err := s.factory.Documents().Create(ctx, doc); err != nil {
		_ = os.Remove(path)
		return nil, nil, errors.ErrDatabase.WithCause(err)
	}

	job, err := s.ingestor.StartIngest(ctx, doc.ID)
	if err != nil {
		return doc, nil, err
	}
	return doc, job, nil
}

// saveUpload streams the upload to the data directory and returns the
// stored path with the content's hex-encoded SHA-256.
func (s *knowledgeService) saveUpload(docID string, data io.Reader) (string, string, error) {
	if err := os.MkdirAll(s.cfg.DataDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create data directory: %w", err)
	}

	path := filepath.Join(s.cfg.DataDir, docID+".pdf")
	out, err := os.Create(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer out.Close()

	hasher := sha256.New()
	n, err := io.Copy(io.MultiWriter(out, hasher), data)
	if err != nil {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("failed to write upload: %w", err)
	}
	if n == 0 {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("uploaded file is empty")
	}

	return path, hex.EncodeToString(hasher.Sum(nil)), nil
}

func (s *knowledgeService) StartIngest(ctx context.Context, documentID string) (*model.IngestJob, error) {
	return s.ingestor.StartIngest(ctx, documentID)
}

func (s *knowledgeService) JobStatus(ctx context.Context, jobID string) (*model.IngestJob, error) {
	return s.ingestor.JobStatus(ctx, jobID)
}

func (s *knowledgeService) Ask(ctx context.Context, tenantID *string, question string) (*model.Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.ErrKnowledgeEmptyQuestion
	}

	started := time.Now()

	embedding, err := s.embedder.EmbedSingle(ctx, question)
	s.metrics.RecordLLMCall(err)
	if err != nil {
		s.metrics.RecordQuery(0, false, err)
		return nil, errors.ErrEmbeddingFailed.WithCause(fmt.Errorf("failed to embed question: %w", err))
	}

	chunks, err := s.index.Search(ctx, embedding, vector.Scope{TenantID: tenantID}, s.cfg.TopK, s.cfg.MinScore)
	s.metrics.RecordRetrieval(err)
	if err != nil {
		s.metrics.RecordQuery(0, false, err)
		return nil, errors.ErrQueryFailed.WithCause(fmt.Errorf("retrieval failed: %w", err))
	}

	answer, err := s.synthesizer.Synthesize(ctx, question, chunks)
	if err != nil {
		s.metrics.RecordQuery(0, false, err)
		return nil, err
	}

	duration := time.Since(started)
	s.metrics.RecordQuery(duration, answer.Refused, nil)

	answer.SessionID = s.logSession(ctx, tenantID, question, answer, len(chunks), duration)
	return answer, nil
}

// logSession appends the QA session. Logging failure never withholds the
// answer; it returns an empty session ID instead.
func (s *knowledgeService) logSession(ctx context.Context, tenantID *string, question string, answer *model.Answer, chunkCount int, duration time.Duration) string {
	citations, err := json.Marshal(answer.Citations)
	if err != nil {
		logger.Warnw("failed to encode citations for session log", "error", err.Error())
		citations = []byte("[]")
	}

	session := &model.QASession{
		ID:         id.New(),
		TenantID:   tenantID,
		Question:   question,
		Answer:     answer.Text,
		Citations:  string(citations),
		ChunkCount: chunkCount,
		DurationMs: duration.Milliseconds(),
	}
	if err := s.factory.Sessions().Create(ctx, session); err != nil {
		logger.Warnw("failed to log qa session", "error", err.Error())
		return ""
	}
	return session.ID
}

func (s *knowledgeService) ListDocuments(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.Document, error) {
	count, docs, err := s.factory.Documents().List(ctx, tenantID, offset, limit)
	if err != nil {
		return 0, nil, errors.ErrDatabase.WithCause(err)
	}
	return count, docs, nil
}

func (s *knowledgeService) DeleteDocument(ctx context.Context, documentID string) error {
	doc, err := s.factory.Documents().Get(ctx, documentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.ErrDocumentNotFound.WithMessagef("document %s not found", documentID)
		}
		return errors.ErrDatabase.WithCause(err)
	}

	// Best effort: a down vector index must not block removal, the scan
	// fallback works off the chunk rows deleted below.
	if err := s.index.DeleteByDocument(ctx, documentID); err != nil {
		logger.Warnw("failed to delete document vectors", "document", documentID, "error", err.Error())
	}

	if err := s.factory.Chunks().DeleteByDocument(ctx, documentID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if err := s.factory.IngestJobs().DeleteByDocument(ctx, documentID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}
	if err := s.factory.Documents().Delete(ctx, documentID); err != nil {
		return errors.ErrDatabase.WithCause(err)
	}

	if err := os.Remove(doc.Source); err != nil && !os.IsNotExist(err) {
		logger.Warnw("failed to remove uploaded file", "path", doc.Source, "error", err.Error())
	}

	return nil
}

func (s *knowledgeService) ListSessions(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.QASession, error) {
	count, sessions, err := s.factory.Sessions().List(ctx, tenantID, offset, limit)
	if err != nil {
		return 0, nil, errors.ErrDatabase.WithCause(err)
	}
	return count, sessions, nil
}

func (s *knowledgeService) Stats(ctx context.Context) (map[string]any, error) {
	chunkCount, err := s.factory.Chunks().Count(ctx)
	if err != nil {
		return nil, errors.ErrDatabase.WithCause(err)
	}

	return map[string]any{
		"chunk_count":        chunkCount,
		"vector_index":       s.index.Name(),
		"embedding_provider": s.embedder.Name(),
		"metrics":            s.metrics.Stats(),
	}, nil
}

func (s *knowledgeService) Health(ctx context.Context) map[string]string {
	result := map[string]string{"status": "ok"}

	if _, err := s.factory.Chunks().Count(ctx); err != nil {
		result["status"] = "degraded"
		result["store"] = err.Error()
	} else {
		result["store"] = "ok"
	}

	if err := s.index.Ping(ctx); err != nil {
		result["status"] = "degraded"
		result["vector_index"] = err.Error()
	} else {
		result["vector_index"] = "ok"
	}

	return result
}
