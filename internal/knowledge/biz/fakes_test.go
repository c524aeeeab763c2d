package biz

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/knowledge/store"
	"github.com/lexfisc/lexfisc/internal/knowledge/vector"
	"github.com/lexfisc/lexfisc/internal/model"
)

// fakeState is shared in-memory backing for the fake store factory.
type fakeState struct {
	mu          sync.Mutex
	documents   map[string]*model.Document
	chunks      []*model.Chunk
	nextChunkID int64
	jobs        map[string]*model.IngestJob
	sessions    []*model.QASession
	sessionErr  error
}

type fakeFactory struct {
	state *fakeState
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{state: &fakeState{
		documents:   make(map[string]*model.Document),
		jobs:        make(map[string]*model.IngestJob),
		nextChunkID: 1,
	}}
}

func (f *fakeFactory) Documents() store.DocumentStore   { return &fakeDocs{f.state} }
func (f *fakeFactory) Chunks() store.ChunkStore         { return &fakeChunks{f.state} }
func (f *fakeFactory) IngestJobs() store.IngestJobStore { return &fakeJobs{f.state} }
func (f *fakeFactory) Sessions() store.SessionStore     { return &fakeSessions{f.state} }
func (f *fakeFactory) AutoMigrate() error               { return nil }
func (f *fakeFactory) Close() error                     { return nil }

type fakeDocs struct{ s *fakeState }

func (d *fakeDocs) Create(ctx context.Context, doc *model.Document) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	cp := *doc
	d.s.documents[doc.ID] = &cp
	return nil
}

func (d *fakeDocs) Update(ctx context.Context, doc *model.Document) error {
	return d.Create(ctx, doc)
}

func (d *fakeDocs) Delete(ctx context.Context, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	delete(d.s.documents, id)
	return nil
}

func (d *fakeDocs) Get(ctx context.Context, id string) (*model.Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	doc, ok := d.s.documents[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *doc
	return &cp, nil
}

func (d *fakeDocs) GetByHash(ctx context.Context, tenantID *string, hash string) (*model.Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	for _, doc := range d.s.documents {
		if doc.Hash == hash {
			cp := *doc
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (d *fakeDocs) List(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.Document, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var docs []*model.Document
	for _, doc := range d.s.documents {
		cp := *doc
		docs = append(docs, &cp)
	}
	return int64(len(docs)), docs, nil
}

type fakeChunks struct{ s *fakeState }

func (c *fakeChunks) CreateBatch(ctx context.Context, batch []*model.Chunk) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for _, chunk := range batch {
		chunk.ID = c.s.nextChunkID
		c.s.nextChunkID++
		cp := *chunk
		c.s.chunks = append(c.s.chunks, &cp)
	}
	return nil
}

func (c *fakeChunks) GetByIDs(ctx context.Context, ids []int64) ([]*model.Chunk, error) {
	return nil, nil
}

func (c *fakeChunks) ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	var result []*model.Chunk
	for _, chunk := range c.s.chunks {
		if chunk.DocumentID == documentID {
			cp := *chunk
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (c *fakeChunks) ListCandidates(ctx context.Context, tenantID *string, limit int) ([]*model.Chunk, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return append([]*model.Chunk(nil), c.s.chunks...), nil
}

func (c *fakeChunks) UpdateVectorIDs(ctx context.Context, ids []int64, vectorIDs []int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	for i, id := range ids {
		for _, chunk := range c.s.chunks {
			if chunk.ID == id {
				chunk.VectorID = vectorIDs[i]
			}
		}
	}
	return nil
}

func (c *fakeChunks) DeleteByDocument(ctx context.Context, documentID string) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	kept := c.s.chunks[:0]
	for _, chunk := range c.s.chunks {
		if chunk.DocumentID != documentID {
			kept = append(kept, chunk)
		}
	}
	c.s.chunks = kept
	return nil
}

func (c *fakeChunks) Count(ctx context.Context) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return int64(len(c.s.chunks)), nil
}

type fakeJobs struct{ s *fakeState }

func (j *fakeJobs) Create(ctx context.Context, job *model.IngestJob) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	cp := *job
	j.s.jobs[job.ID] = &cp
	return nil
}

func (j *fakeJobs) Update(ctx context.Context, job *model.IngestJob) error {
	return j.Create(ctx, job)
}

func (j *fakeJobs) Get(ctx context.Context, id string) (*model.IngestJob, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	job, ok := j.s.jobs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *job
	return &cp, nil
}

func (j *fakeJobs) GetActiveByDocument(ctx context.Context, documentID string) (*model.IngestJob, error) {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	for _, job := range j.s.jobs {
		if job.DocumentID == documentID && !job.IsTerminal() {
			cp := *job
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (j *fakeJobs) ListByDocument(ctx context.Context, documentID string) ([]*model.IngestJob, error) {
	return nil, nil
}

func (j *fakeJobs) DeleteByDocument(ctx context.Context, documentID string) error {
	j.s.mu.Lock()
	defer j.s.mu.Unlock()
	for id, job := range j.s.jobs {
		if job.DocumentID == documentID {
			delete(j.s.jobs, id)
		}
	}
	return nil
}

type fakeSessions struct{ s *fakeState }

func (se *fakeSessions) Create(ctx context.Context, session *model.QASession) error {
	se.s.mu.Lock()
	defer se.s.mu.Unlock()
	if se.s.sessionErr != nil {
		return se.s.sessionErr
	}
	cp := *session
	se.s.sessions = append(se.s.sessions, &cp)
	return nil
}

func (se *fakeSessions) List(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.QASession, error) {
	se.s.mu.Lock()
	defer se.s.mu.Unlock()
	return int64(len(se.s.sessions)), append([]*model.QASession(nil), se.s.sessions...), nil
}

// fakeEmbedder returns constant-direction embeddings.
type fakeEmbedder struct {
	mu    sync.Mutex
	calls int
	err   error
	dim   int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vec()
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vec(), nil
}

func (f *fakeEmbedder) Name() string { return "fake-embedder" }

func (f *fakeEmbedder) vec() []float32 {
	dim := f.dim
	if dim == 0 {
		dim = 4
	}
	v := make([]float32, dim)
	v[0] = 1
	return v
}

// fakeIndex records inserts and serves canned search results.
type fakeIndex struct {
	mu        sync.Mutex
	inserted  []*model.Chunk
	results   []model.RetrievedChunk
	searchErr error
	insertErr error
	deleted   []string
}

func (f *fakeIndex) Insert(ctx context.Context, chunks []*model.Chunk, embeddings [][]float32) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		f.inserted = append(f.inserted, c)
		ids[i] = int64(1000 + len(f.inserted))
	}
	return ids, nil
}

func (f *fakeIndex) Search(ctx context.Context, vec []float32, scope vector.Scope, k int, minScore float32) ([]model.RetrievedChunk, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

func (f *fakeIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, documentID)
	return nil
}

func (f *fakeIndex) Ping(ctx context.Context) error { return nil }
func (f *fakeIndex) Name() string                   { return "fake-index" }

// fakeExtractor returns configured text without touching files.
type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, path string) (*ExtractResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ExtractResult{Text: f.text, Pages: f.pages}, nil
}

var errIndexDown = errors.New("index unavailable")
