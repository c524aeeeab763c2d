package vector

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/utils/json"
)

// fakeChunkStore implements store.ChunkStore over a static slice.
type fakeChunkStore struct {
	chunks  []*model.Chunk
	listErr error
}

func (f *fakeChunkStore) CreateBatch(ctx context.Context, chunks []*model.Chunk) error {
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeChunkStore) GetByIDs(ctx context.Context, ids []int64) ([]*model.Chunk, error) {
	return nil, nil
}

func (f *fakeChunkStore) ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	return nil, nil
}

func (f *fakeChunkStore) ListCandidates(ctx context.Context, tenantID *string, limit int) ([]*model.Chunk, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	visible := make([]*model.Chunk, 0, len(f.chunks))
	for _, c := range f.chunks {
		if c.TenantID == nil || (tenantID != nil && *c.TenantID == *tenantID) {
			visible = append(visible, c)
		}
		if len(visible) >= limit {
			break
		}
	}
	return visible, nil
}

func (f *fakeChunkStore) UpdateVectorIDs(ctx context.Context, ids []int64, vectorIDs []int64) error {
	return nil
}

func (f *fakeChunkStore) DeleteByDocument(ctx context.Context, documentID string) error {
	return nil
}

func (f *fakeChunkStore) Count(ctx context.Context) (int64, error) {
	if f.listErr != nil {
		return 0, f.listErr
	}
	return int64(len(f.chunks)), nil
}

func encodeVec(t *testing.T, v []float32) string {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal embedding: %v", err)
	}
	return string(data)
}

func testChunk(t *testing.T, id int64, tenantID *string, doc, title string, ordinal int, vec []float32) *model.Chunk {
	t.Helper()
	return &model.Chunk{
		ID:         id,
		DocumentID: doc,
		TenantID:   tenantID,
		Title:      title,
		Ordinal:    ordinal,
		Content:    "content",
		Embedding:  encodeVec(t, vec),
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 0}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBruteForceSearchRanking(t *testing.T) {
	store := &fakeChunkStore{chunks: []*model.Chunk{
		testChunk(t, 1, nil, "doc-1", "VAT Guide", 1, []float32{1, 0, 0}),
		testChunk(t, 2, nil, "doc-1", "VAT Guide", 2, []float32{0.9, 0.1, 0}),
		testChunk(t, 3, nil, "doc-2", "Income Tax", 1, []float32{0, 1, 0}),
	}}
	idx := NewBruteForceIndex(store, 100)

	results, err := idx.Search(context.Background(), []float32{1, 0, 0}, Scope{}, 8, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results above threshold, got %d", len(results))
	}
	if results[0].ChunkID != 1 || results[1].ChunkID != 2 {
		t.Errorf("unexpected ranking: %d, %d", results[0].ChunkID, results[1].ChunkID)
	}
	if results[0].Score < results[1].Score {
		t.Errorf("results not sorted by descending score")
	}
	if results[0].Title != "VAT Guide" || results[0].Ordinal != 1 {
		t.Errorf("citation fields not carried: %+v", results[0])
	}
}

func TestBruteForceSearchTopK(t *testing.T) {
	store := &fakeChunkStore{}
	for i := int64(1); i <= 10; i++ {
		store.chunks = append(store.chunks, testChunk(t, i, nil, "doc-1", "Doc", int(i), []float32{1, 0}))
	}
	idx := NewBruteForceIndex(store, 100)

	results, err := idx.Search(context.Background(), []float32{1, 0}, Scope{}, 3, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 3 {
		t.Errorf("expected k=3 results, got %d", len(results))
	}
}

func TestBruteForceTenantScope(t *testing.T) {
	tenantA := "tenant-a"
	store := &fakeChunkStore{chunks: []*model.Chunk{
		testChunk(t, 1, nil, "doc-shared", "Shared", 1, []float32{1, 0}),
		testChunk(t, 2, &tenantA, "doc-a", "Private", 1, []float32{1, 0}),
	}}
	idx := NewBruteForceIndex(store, 100)

	results, err := idx.Search(context.Background(), []float32{1, 0}, Scope{}, 8, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != 1 {
		t.Errorf("nil tenant should only see shared chunks: %+v", results)
	}

	results, err = idx.Search(context.Background(), []float32{1, 0}, Scope{TenantID: &tenantA}, 8, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Errorf("tenant should see shared plus own chunks, got %d", len(results))
	}
}

func TestBruteForceSkipsCorruptEmbeddings(t *testing.T) {
	store := &fakeChunkStore{chunks: []*model.Chunk{
		{ID: 1, DocumentID: "doc-1", Ordinal: 1, Content: "c", Embedding: "not-json"},
		testChunk(t, 2, nil, "doc-1", "Doc", 2, []float32{1, 0}),
	}}
	idx := NewBruteForceIndex(store, 100)

	results, err := idx.Search(context.Background(), []float32{1, 0}, Scope{}, 8, 0.5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 1 || results[0].ChunkID != 2 {
		t.Errorf("corrupt embedding should be skipped: %+v", results)
	}
}

func TestBruteForceEmptyCorpus(t *testing.T) {
	idx := NewBruteForceIndex(&fakeChunkStore{}, 100)
	results, err := idx.Search(context.Background(), []float32{1, 0}, Scope{}, 8, 0.5)
	if err != nil {
		t.Fatalf("empty corpus must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

// failingIndex always errors, to exercise the fallback path.
type failingIndex struct{}

func (failingIndex) Insert(ctx context.Context, chunks []*model.Chunk, embeddings [][]float32) ([]int64, error) {
	return nil, errors.New("index unavailable")
}

func (failingIndex) Search(ctx context.Context, vector []float32, scope Scope, k int, minScore float32) ([]model.RetrievedChunk, error) {
	return nil, errors.New("index unavailable")
}

func (failingIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	return errors.New("index unavailable")
}

func (failingIndex) Ping(ctx context.Context) error { return errors.New("index unavailable") }
func (failingIndex) Name() string                   { return "failing" }

func TestFallbackSearch(t *testing.T) {
	store := &fakeChunkStore{chunks: []*model.Chunk{
		testChunk(t, 1, nil, "doc-1", "Doc", 1, []float32{1, 0}),
	}}
	fallbacks := 0
	idx := NewFallbackIndex(failingIndex{}, NewBruteForceIndex(store, 100), func() { fallbacks++ })

	results, err := idx.Search(context.Background(), []float32{1, 0}, Scope{}, 8, 0.5)
	if err != nil {
		t.Fatalf("fallback search error = %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected 1 result from fallback, got %d", len(results))
	}
	if fallbacks != 1 {
		t.Errorf("expected fallback counter 1, got %d", fallbacks)
	}
}

func TestFallbackInsertDegrades(t *testing.T) {
	store := &fakeChunkStore{}
	idx := NewFallbackIndex(failingIndex{}, NewBruteForceIndex(store, 100), nil)

	chunk := testChunk(t, 7, nil, "doc-1", "Doc", 1, []float32{1, 0})
	ids, err := idx.Insert(context.Background(), []*model.Chunk{chunk}, [][]float32{{1, 0}})
	if err != nil {
		t.Fatalf("degraded insert must not error: %v", err)
	}
	if len(ids) != 1 || ids[0] != 7 {
		t.Errorf("expected chunk row id back, got %v", ids)
	}
}
