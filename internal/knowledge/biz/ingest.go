package biz

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/knowledge/metrics"
	"github.com/lexfisc/lexfisc/internal/knowledge/store"
	"github.com/lexfisc/lexfisc/internal/knowledge/vector"
	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/infra/pool"
	"github.com/lexfisc/lexfisc/pkg/llm"
	"github.com/lexfisc/lexfisc/pkg/utils/errors"
	"github.com/lexfisc/lexfisc/pkg/utils/id"
	"github.com/lexfisc/lexfisc/pkg/utils/json"
)

// Ingestion defaults.
const (
	DefaultIngestBatchSize = 10
	DefaultIngestTimeout   = 4 * time.Minute
)

// IngestConfig tunes the ingestion pipeline.
type IngestConfig struct {
	// BatchSize is the number of chunks embedded and indexed per batch.
	BatchSize int
	// Timeout is the wall budget for one ingestion run, checked between
	// batches.
	Timeout time.Duration
}

// docLocks is an in-process advisory lock keyed by document ID. It backs
// up the store-level active-job check so two concurrent requests in the
// same process cannot both start a run.
type docLocks struct {
	mu     sync.Mutex
	active map[string]bool
}

func newDocLocks() *docLocks {
	return &docLocks{active: make(map[string]bool)}
}

func (l *docLocks) TryLock(docID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active[docID] {
		return false
	}
	l.active[docID] = true
	return true
}

func (l *docLocks) Unlock(docID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, docID)
}

// Ingestor runs document ingestion: extract, chunk, embed, index.
type Ingestor struct {
	factory   store.Factory
	index     vector.Index
	embedder  llm.EmbeddingProvider
	extractor Extractor
	chunker   *Chunker
	cfg       IngestConfig
	metrics   *metrics.Metrics
	locks     *docLocks
}

// NewIngestor creates an ingestor. Zero config values fall back to the
// defaults.
func NewIngestor(factory store.Factory, index vector.Index, embedder llm.EmbeddingProvider, extractor Extractor, chunker *Chunker, cfg IngestConfig) *Ingestor {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultIngestBatchSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultIngestTimeout
	}
	return &Ingestor{
		factory:   factory,
		index:     index,
		embedder:  embedder,
		extractor: extractor,
		chunker:   chunker,
		cfg:       cfg,
		metrics:   metrics.Get(),
		locks:     newDocLocks(),
	}
}

// StartIngest creates a pending job for the document and detaches the
// run. At most one run per document may be active; a second request gets
// ErrIngestInProgress.
func (i *Ingestor) StartIngest(ctx context.Context, documentID string) (*model.IngestJob, error) {
	doc, err := i.factory.Documents().Get(ctx, documentID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrDocumentNotFound.WithMessagef("document %s not found", documentID)
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}

	if !i.locks.TryLock(documentID) {
		return nil, errors.ErrIngestInProgress.WithMessagef("ingestion already running for document %s", documentID)
	}

	if _, err := i.factory.IngestJobs().GetActiveByDocument(ctx, documentID); err == nil {
		i.locks.Unlock(documentID)
		return nil, errors.ErrIngestInProgress.WithMessagef("ingestion already running for document %s", documentID)
	} else if err != gorm.ErrRecordNotFound {
		i.locks.Unlock(documentID)
		return nil, errors.ErrDatabase.WithCause(err)
	}

	job := &model.IngestJob{
		ID:         id.New(),
		DocumentID: documentID,
		Status:     model.JobStatusPending,
	}
	if err := i.factory.IngestJobs().Create(ctx, job); err != nil {
		i.locks.Unlock(documentID)
		return nil, errors.ErrDatabase.WithCause(err)
	}

	i.metrics.RecordIngestStart()

	task := func() { i.run(job.ID, doc) }
	if err := pool.SubmitToType(pool.BackgroundPool, task); err != nil {
		logger.Warnw("background pool unavailable, running ingest in plain goroutine",
			"job", job.ID, "error", err.Error())
		go task()
	}

	return job, nil
}

// JobStatus returns the job by ID.
func (i *Ingestor) JobStatus(ctx context.Context, jobID string) (*model.IngestJob, error) {
	job, err := i.factory.IngestJobs().Get(ctx, jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.ErrJobNotFound.WithMessagef("ingest job %s not found", jobID)
		}
		return nil, errors.ErrDatabase.WithCause(err)
	}
	return job, nil
}

// run executes one ingestion under the wall budget. It always releases
// the document lock and records a terminal job status.
func (i *Ingestor) run(jobID string, doc *model.Document) {
	defer i.locks.Unlock(doc.ID)

	ctx, cancel := context.WithTimeout(context.Background(), i.cfg.Timeout)
	defer cancel()

	job, err := i.factory.IngestJobs().Get(ctx, jobID)
	if err != nil {
		logger.Errorw("failed to load ingest job", "job", jobID, "error", err.Error())
		return
	}

	now := time.Now()
	job.Status = model.JobStatusProcessing
	job.StartedAt = &now
	if err := i.factory.IngestJobs().Update(ctx, job); err != nil {
		logger.Errorw("failed to mark job processing", "job", jobID, "error", err.Error())
	}

	logger.Infow("ingestion started", "job", jobID, "document", doc.ID, "title", doc.Title)

	total, pages, err := i.ingest(ctx, job, doc)
	if err != nil {
		timedOut := ctx.Err() != nil
		i.fail(job, doc, err, timedOut)
		i.metrics.RecordIngestResult(0, timedOut, err)
		return
	}

	finished := time.Now()
	job.Status = model.JobStatusCompleted
	job.Progress = 100
	job.FinishedAt = &finished

	doc.Status = model.DocumentStatusIndexed
	doc.ChunkNum = total
	doc.Pages = pages

	sctx, scancel := statusContext()
	defer scancel()
	if err := i.factory.IngestJobs().Update(sctx, job); err != nil {
		logger.Errorw("failed to mark job completed", "job", jobID, "error", err.Error())
	}
	if err := i.factory.Documents().Update(sctx, doc); err != nil {
		logger.Errorw("failed to mark document indexed", "document", doc.ID, "error", err.Error())
	}

	i.metrics.RecordIngestResult(total, false, nil)
	logger.Infow("ingestion completed", "job", jobID, "document", doc.ID, "chunks", total)
}

// ingest does the actual pipeline work and returns the chunk and page
// counts.
func (i *Ingestor) ingest(ctx context.Context, job *model.IngestJob, doc *model.Document) (int, int, error) {
	// Remove leftovers from any previous run so a re-ingest starts clean.
	if err := i.index.DeleteByDocument(ctx, doc.ID); err != nil {
		logger.Warnw("failed to clear vector index before ingest", "document", doc.ID, "error", err.Error())
	}
	if err := i.factory.Chunks().DeleteByDocument(ctx, doc.ID); err != nil {
		return 0, 0, fmt.Errorf("failed to clear previous chunks: %w", err)
	}

	res, err := i.extractor.Extract(ctx, doc.Source)
	if err != nil {
		return 0, 0, err
	}

	pieces := i.chunker.Split(res.Text)
	if len(pieces) == 0 {
		return 0, 0, errors.ErrUnreadableDoc.WithMessage("document yields no chunks")
	}

	total := len(pieces)
	job.Total = total
	if err := i.factory.IngestJobs().Update(ctx, job); err != nil {
		logger.Warnw("failed to record chunk total", "job", job.ID, "error", err.Error())
	}

	for start := 0; start < total; start += i.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return 0, 0, errors.ErrIngestTimeout.WithMessagef(
				"ingestion exceeded the %s wall budget after %d of %d chunks",
				i.cfg.Timeout, job.Processed, total)
		}

		end := start + i.cfg.BatchSize
		if end > total {
			end = total
		}
		batch := pieces[start:end]

		embeddings, err := i.embedder.Embed(ctx, batch)
		i.metrics.RecordLLMCall(err)
		if err != nil {
			return 0, 0, errors.ErrEmbeddingFailed.WithCause(
				fmt.Errorf("failed to embed chunks %d-%d: %w", start, end, err))
		}

		rows := make([]*model.Chunk, len(batch))
		for j, content := range batch {
			embJSON, err := json.Marshal(embeddings[j])
			if err != nil {
				return 0, 0, fmt.Errorf("failed to encode embedding: %w", err)
			}
			rows[j] = &model.Chunk{
				DocumentID: doc.ID,
				TenantID:   doc.TenantID,
				Title:      doc.Title,
				Ordinal:    start + j + 1,
				Content:    content,
				Embedding:  string(embJSON),
			}
		}

		if err := i.factory.Chunks().CreateBatch(ctx, rows); err != nil {
			return 0, 0, errors.ErrDatabase.WithCause(fmt.Errorf("failed to store chunks %d-%d: %w", start, end, err))
		}

		vecIDs, err := i.index.Insert(ctx, rows, embeddings)
		if err != nil {
			return 0, 0, errors.ErrIngestFailed.WithCause(fmt.Errorf("failed to index chunks %d-%d: %w", start, end, err))
		}
		if len(vecIDs) == len(rows) {
			ids := make([]int64, len(rows))
			for j, row := range rows {
				ids[j] = row.ID
			}
			if err := i.factory.Chunks().UpdateVectorIDs(ctx, ids, vecIDs); err != nil {
				logger.Warnw("failed to record vector ids", "job", job.ID, "error", err.Error())
			}
		}

		job.Processed = end
		job.Progress = end * 100 / total
		if err := i.factory.IngestJobs().Update(ctx, job); err != nil {
			logger.Warnw("failed to update job progress", "job", job.ID, "error", err.Error())
		}
	}

	return total, res.Pages, nil
}

// fail records the terminal failed state with the verbatim error message.
func (i *Ingestor) fail(job *model.IngestJob, doc *model.Document, cause error, timedOut bool) {
	finished := time.Now()
	job.Status = model.JobStatusFailed
	job.Error = cause.Error()
	job.FinishedAt = &finished

	doc.Status = model.DocumentStatusFailed

	sctx, cancel := statusContext()
	defer cancel()
	if err := i.factory.IngestJobs().Update(sctx, job); err != nil {
		logger.Errorw("failed to mark job failed", "job", job.ID, "error", err.Error())
	}
	if err := i.factory.Documents().Update(sctx, doc); err != nil {
		logger.Errorw("failed to mark document failed", "document", doc.ID, "error", err.Error())
	}

	logger.Warnw("ingestion failed", "job", job.ID, "document", doc.ID,
		"timeout", timedOut, "error", cause.Error())
}

// statusContext is used for terminal status writes so they are not cut
// short by an expired run context.
func statusContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}
