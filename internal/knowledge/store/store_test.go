package store

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/model"
)

func setupTestFactory(t *testing.T) *datastore {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	ds := &datastore{db: db}
	require.NoError(t, ds.AutoMigrate())
	return ds
}

func strPtr(s string) *string {
	return &s
}

func TestDocumentCRUD(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	docs := ds.Documents()

	doc := &model.Document{
		ID:     "doc-1",
		Title:  "VAT Guide 2026",
		Source: "/data/uploads/vat-guide.pdf",
		Hash:   "abc123",
		Status: model.DocumentStatusPending,
	}
	require.NoError(t, docs.Create(ctx, doc))

	got, err := docs.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "VAT Guide 2026", got.Title)
	assert.Equal(t, model.DocumentStatusPending, got.Status)

	got.Status = model.DocumentStatusIndexed
	got.ChunkNum = 12
	require.NoError(t, docs.Update(ctx, got))

	got, err = docs.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, model.DocumentStatusIndexed, got.Status)
	assert.Equal(t, 12, got.ChunkNum)

	require.NoError(t, docs.Delete(ctx, "doc-1"))
	_, err = docs.Get(ctx, "doc-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestDocumentTenantScoping(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	docs := ds.Documents()

	shared := &model.Document{ID: "doc-shared", Title: "Shared", Source: "s"}
	tenantA := &model.Document{ID: "doc-a", TenantID: strPtr("tenant-a"), Title: "A", Source: "a"}
	tenantB := &model.Document{ID: "doc-b", TenantID: strPtr("tenant-b"), Title: "B", Source: "b"}
	require.NoError(t, docs.Create(ctx, shared))
	require.NoError(t, docs.Create(ctx, tenantA))
	require.NoError(t, docs.Create(ctx, tenantB))

	// Tenant A sees its own document plus the shared one.
	count, list, err := docs.List(ctx, strPtr("tenant-a"), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	ids := make([]string, 0, len(list))
	for _, d := range list {
		ids = append(ids, d.ID)
	}
	assert.ElementsMatch(t, []string{"doc-shared", "doc-a"}, ids)

	// A nil tenant sees only shared documents.
	count, list, err = docs.List(ctx, nil, 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, "doc-shared", list[0].ID)
}

func TestDocumentGetByHash(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	docs := ds.Documents()

	require.NoError(t, docs.Create(ctx, &model.Document{
		ID: "doc-1", TenantID: strPtr("tenant-a"), Title: "A", Source: "a", Hash: "h1",
	}))

	got, err := docs.GetByHash(ctx, strPtr("tenant-a"), "h1")
	require.NoError(t, err)
	assert.Equal(t, "doc-1", got.ID)

	// Another tenant cannot see it.
	_, err = docs.GetByHash(ctx, strPtr("tenant-b"), "h1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestChunkBatchAndCandidates(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	chunks := ds.Chunks()

	batch := []*model.Chunk{
		{DocumentID: "doc-1", TenantID: strPtr("tenant-a"), Ordinal: 1, Content: "first", Embedding: "[0.1,0.2]"},
		{DocumentID: "doc-1", TenantID: strPtr("tenant-a"), Ordinal: 2, Content: "second", Embedding: "[0.3,0.4]"},
		{DocumentID: "doc-2", Ordinal: 1, Content: "shared", Embedding: "[0.5,0.6]"},
	}
	require.NoError(t, chunks.CreateBatch(ctx, batch))

	byDoc, err := chunks.ListByDocument(ctx, "doc-1")
	require.NoError(t, err)
	require.Len(t, byDoc, 2)
	assert.Equal(t, 1, byDoc[0].Ordinal)
	assert.Equal(t, 2, byDoc[1].Ordinal)

	candidates, err := chunks.ListCandidates(ctx, strPtr("tenant-a"), 100)
	require.NoError(t, err)
	assert.Len(t, candidates, 3)

	candidates, err = chunks.ListCandidates(ctx, strPtr("tenant-b"), 100)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)

	got, err := chunks.GetByIDs(ctx, []int64{byDoc[0].ID})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Content)

	count, err := chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	require.NoError(t, chunks.DeleteByDocument(ctx, "doc-1"))
	count, err = chunks.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestChunkUpdateVectorIDs(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	chunks := ds.Chunks()

	batch := []*model.Chunk{
		{DocumentID: "doc-1", Ordinal: 1, Content: "a"},
		{DocumentID: "doc-1", Ordinal: 2, Content: "b"},
	}
	require.NoError(t, chunks.CreateBatch(ctx, batch))

	require.NoError(t, chunks.UpdateVectorIDs(ctx, []int64{batch[0].ID, batch[1].ID}, []int64{101, 102}))

	got, err := chunks.ListByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(101), got[0].VectorID)
	assert.Equal(t, int64(102), got[1].VectorID)

	assert.Error(t, chunks.UpdateVectorIDs(ctx, []int64{1}, []int64{1, 2}))
}

func TestChunkEmptyBatch(t *testing.T) {
	ds := setupTestFactory(t)
	assert.NoError(t, ds.Chunks().CreateBatch(context.Background(), nil))
}

func TestIngestJobLifecycle(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	jobs := ds.IngestJobs()

	job := &model.IngestJob{ID: "job-1", DocumentID: "doc-1", Status: model.JobStatusPending}
	require.NoError(t, jobs.Create(ctx, job))

	active, err := jobs.GetActiveByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "job-1", active.ID)

	job.Status = model.JobStatusProcessing
	job.Total = 20
	job.Processed = 10
	job.Progress = 50
	require.NoError(t, jobs.Update(ctx, job))

	active, err = jobs.GetActiveByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 50, active.Progress)

	job.Status = model.JobStatusCompleted
	require.NoError(t, jobs.Update(ctx, job))

	_, err = jobs.GetActiveByDocument(ctx, "doc-1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := jobs.ListByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.True(t, list[0].IsTerminal())
}

func TestSessionLog(t *testing.T) {
	ds := setupTestFactory(t)
	ctx := context.Background()
	sessions := ds.Sessions()

	require.NoError(t, sessions.Create(ctx, &model.QASession{
		ID:       "sess-1",
		TenantID: strPtr("tenant-a"),
		Question: "What is the VAT rate?",
		Answer:   "The standard rate is 21% [VAT Guide §3].",
	}))
	require.NoError(t, sessions.Create(ctx, &model.QASession{
		ID:       "sess-2",
		Question: "Shared question",
		Answer:   "Shared answer",
	}))

	count, list, err := sessions.List(ctx, strPtr("tenant-a"), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Len(t, list, 2)

	count, _, err = sessions.List(ctx, strPtr("tenant-b"), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
