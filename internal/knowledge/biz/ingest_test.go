package biz

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/utils/errors"
)

func newTestIngestor(factory *fakeFactory, index *fakeIndex, embedder *fakeEmbedder, extractor Extractor, cfg IngestConfig) *Ingestor {
	return NewIngestor(factory, index, embedder, extractor, NewChunker(900, 150), cfg)
}

func seedDocument(t *testing.T, factory *fakeFactory, id string) *model.Document {
	t.Helper()
	doc := &model.Document{
		ID:     id,
		Title:  "VAT Guide",
		Source: "/tmp/" + id + ".pdf",
		Status: model.DocumentStatusPending,
	}
	if err := factory.Documents().Create(context.Background(), doc); err != nil {
		t.Fatalf("seed document: %v", err)
	}
	return doc
}

func waitForTerminal(t *testing.T, ing *Ingestor, jobID string) *model.IngestJob {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := ing.JobStatus(context.Background(), jobID)
		if err != nil {
			t.Fatalf("JobStatus() error = %v", err)
		}
		if job.IsTerminal() {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not reach a terminal state")
	return nil
}

func TestIngestCompletesWithTwoChunks(t *testing.T) {
	factory := newFakeFactory()
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	extractor := &fakeExtractor{text: strings.Repeat("a", 1000), pages: 3}
	ing := newTestIngestor(factory, index, embedder, extractor, IngestConfig{})

	doc := seedDocument(t, factory, "doc-1")

	job, err := ing.StartIngest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("StartIngest() error = %v", err)
	}
	if job.Status != model.JobStatusPending {
		t.Errorf("new job should be pending, got %s", job.Status)
	}

	done := waitForTerminal(t, ing, job.ID)
	if done.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s (error: %s)", done.Status, done.Error)
	}
	if done.Progress != 100 || done.Total != 2 || done.Processed != 2 {
		t.Errorf("unexpected progress fields: progress=%d total=%d processed=%d",
			done.Progress, done.Total, done.Processed)
	}
	if done.StartedAt == nil || done.FinishedAt == nil {
		t.Error("expected started/finished timestamps on terminal job")
	}

	got, err := factory.Documents().Get(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("Get document: %v", err)
	}
	if got.Status != model.DocumentStatusIndexed || got.ChunkNum != 2 || got.Pages != 3 {
		t.Errorf("document not finalized: %+v", got)
	}

	rows, err := factory.Chunks().ListByDocument(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("ListByDocument: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 chunk rows, got %d", len(rows))
	}
	if rows[0].Ordinal != 1 || rows[1].Ordinal != 2 {
		t.Errorf("ordinals must be 1-based and sequential: %d, %d", rows[0].Ordinal, rows[1].Ordinal)
	}
	if rows[0].Title != "VAT Guide" {
		t.Errorf("chunk rows must carry the document title, got %q", rows[0].Title)
	}
	if rows[0].Embedding == "" {
		t.Error("chunk rows must carry the embedding JSON")
	}
	if rows[0].VectorID == 0 {
		t.Error("chunk rows must carry the vector index id")
	}

	index.mu.Lock()
	defer index.mu.Unlock()
	if len(index.inserted) != 2 {
		t.Errorf("expected 2 vectors indexed, got %d", len(index.inserted))
	}
}

func TestIngestFailsOnUnreadableDocument(t *testing.T) {
	factory := newFakeFactory()
	short := &fakeExtractor{err: errors.ErrUnreadableDoc.WithMessage(
		"document yields 10 characters of text, minimum is 50 (empty or scanned pdf)")}
	ing := newTestIngestor(factory, &fakeIndex{}, &fakeEmbedder{}, short, IngestConfig{})

	doc := seedDocument(t, factory, "doc-short")

	job, err := ing.StartIngest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("StartIngest() error = %v", err)
	}

	done := waitForTerminal(t, ing, job.ID)
	if done.Status != model.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", done.Status)
	}
	if !strings.Contains(done.Error, "minimum is 50") {
		t.Errorf("job must carry the verbatim error message, got %q", done.Error)
	}

	got, _ := factory.Documents().Get(context.Background(), doc.ID)
	if got.Status != model.DocumentStatusFailed {
		t.Errorf("document should be failed, got %s", got.Status)
	}
}

func TestIngestFailsOnEmbeddingError(t *testing.T) {
	factory := newFakeFactory()
	embedder := &fakeEmbedder{err: errIndexDown}
	extractor := &fakeExtractor{text: strings.Repeat("b", 1000), pages: 1}
	ing := newTestIngestor(factory, &fakeIndex{}, embedder, extractor, IngestConfig{})

	doc := seedDocument(t, factory, "doc-embed")

	job, err := ing.StartIngest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("StartIngest() error = %v", err)
	}

	done := waitForTerminal(t, ing, job.ID)
	if done.Status != model.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", done.Status)
	}
	if !strings.Contains(done.Error, "failed to embed") {
		t.Errorf("unexpected error message: %q", done.Error)
	}
}

func TestIngestRejectsConcurrentRuns(t *testing.T) {
	factory := newFakeFactory()
	// An active job in the store blocks a second run even without the
	// in-process lock held.
	doc := seedDocument(t, factory, "doc-busy")
	if err := factory.IngestJobs().Create(context.Background(), &model.IngestJob{
		ID: "job-active", DocumentID: doc.ID, Status: model.JobStatusProcessing,
	}); err != nil {
		t.Fatal(err)
	}

	ing := newTestIngestor(factory, &fakeIndex{}, &fakeEmbedder{}, &fakeExtractor{text: "x"}, IngestConfig{})

	_, err := ing.StartIngest(context.Background(), doc.ID)
	if !errors.IsCode(err, errors.ErrIngestInProgress.Code) {
		t.Fatalf("expected ErrIngestInProgress, got %v", err)
	}
}

func TestIngestUnknownDocument(t *testing.T) {
	ing := newTestIngestor(newFakeFactory(), &fakeIndex{}, &fakeEmbedder{}, &fakeExtractor{}, IngestConfig{})

	_, err := ing.StartIngest(context.Background(), "missing")
	if !errors.IsCode(err, errors.ErrDocumentNotFound.Code) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestIngestTimesOutBetweenBatches(t *testing.T) {
	factory := newFakeFactory()
	embedder := &fakeEmbedder{}
	// Enough text for several batches with a budget that expires at once.
	extractor := &fakeExtractor{text: strings.Repeat("c", 20000), pages: 1}
	ing := newTestIngestor(factory, &fakeIndex{}, embedder, extractor, IngestConfig{
		BatchSize: 1,
		Timeout:   time.Nanosecond,
	})

	doc := seedDocument(t, factory, "doc-slow")

	job, err := ing.StartIngest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("StartIngest() error = %v", err)
	}

	done := waitForTerminal(t, ing, job.ID)
	if done.Status != model.JobStatusFailed {
		t.Fatalf("expected failed job, got %s", done.Status)
	}
	if !strings.Contains(done.Error, "wall budget") {
		t.Errorf("expected wall budget error, got %q", done.Error)
	}
}

func TestIngestCleansPreviousChunks(t *testing.T) {
	factory := newFakeFactory()
	index := &fakeIndex{}
	extractor := &fakeExtractor{text: strings.Repeat("d", 500), pages: 1}
	ing := newTestIngestor(factory, index, &fakeEmbedder{}, extractor, IngestConfig{})

	doc := seedDocument(t, factory, "doc-redo")

	// Leftover chunk from an earlier failed run.
	if err := factory.Chunks().CreateBatch(context.Background(), []*model.Chunk{
		{DocumentID: doc.ID, Ordinal: 1, Content: "stale"},
	}); err != nil {
		t.Fatal(err)
	}

	job, err := ing.StartIngest(context.Background(), doc.ID)
	if err != nil {
		t.Fatalf("StartIngest() error = %v", err)
	}
	done := waitForTerminal(t, ing, job.ID)
	if done.Status != model.JobStatusCompleted {
		t.Fatalf("expected completed job, got %s (%s)", done.Status, done.Error)
	}

	rows, _ := factory.Chunks().ListByDocument(context.Background(), doc.ID)
	if len(rows) != 1 {
		t.Fatalf("expected 1 fresh chunk, got %d", len(rows))
	}
	if rows[0].Content == "stale" {
		t.Error("stale chunk from previous run must be removed")
	}

	index.mu.Lock()
	defer index.mu.Unlock()
	if len(index.deleted) == 0 || index.deleted[0] != doc.ID {
		t.Error("vector index must be cleared before re-ingest")
	}
}
