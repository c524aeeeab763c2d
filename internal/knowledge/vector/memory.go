package vector

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/lexfisc/lexfisc/internal/knowledge/store"
	"github.com/lexfisc/lexfisc/internal/model"
	"github.com/lexfisc/lexfisc/pkg/utils/json"
)

// BruteForceIndex implements Index by scanning chunk embeddings stored in
// the relational store. It serves as the fallback when Milvus is
// unavailable; Insert and DeleteByDocument are no-ops because the chunk
// rows it scans are maintained by the ingest pipeline itself.
type BruteForceIndex struct {
	chunks         store.ChunkStore
	candidateLimit int
}

// NewBruteForceIndex creates a brute-force index over the chunk store.
// candidateLimit bounds how many chunks one search will scan.
func NewBruteForceIndex(chunks store.ChunkStore, candidateLimit int) *BruteForceIndex {
	return &BruteForceIndex{chunks: chunks, candidateLimit: candidateLimit}
}

// Name identifies the index implementation.
func (b *BruteForceIndex) Name() string {
	return "brute-force"
}

// Ping reports whether the backing store is reachable.
func (b *BruteForceIndex) Ping(ctx context.Context) error {
	_, err := b.chunks.Count(ctx)
	return err
}

// Insert is a no-op: the embeddings this index scans live on the chunk
// rows written by the ingest pipeline.
func (b *BruteForceIndex) Insert(ctx context.Context, chunks []*model.Chunk, embeddings [][]float32) ([]int64, error) {
	ids := make([]int64, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ID
	}
	return ids, nil
}

// Search scans tenant-visible chunk embeddings and ranks them by cosine
// similarity.
func (b *BruteForceIndex) Search(ctx context.Context, vector []float32, scope Scope, k int, minScore float32) ([]model.RetrievedChunk, error) {
	candidates, err := b.chunks.ListCandidates(ctx, scope.TenantID, b.candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate chunks: %w", err)
	}

	scored := make([]model.RetrievedChunk, 0, len(candidates))
	for _, chunk := range candidates {
		if chunk.Embedding == "" {
			continue
		}
		var embedding []float32
		if err := json.Unmarshal([]byte(chunk.Embedding), &embedding); err != nil {
			continue
		}
		score := CosineSimilarity(vector, embedding)
		if score < minScore {
			continue
		}
		scored = append(scored, model.RetrievedChunk{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Title:      chunk.Title,
			Ordinal:    chunk.Ordinal,
			Content:    chunk.Content,
			Score:      score,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > k {
		scored = scored[:k]
	}

	return scored, nil
}

// DeleteByDocument is a no-op: chunk rows are removed by the store layer.
func (b *BruteForceIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	return nil
}

// CosineSimilarity returns the cosine of the angle between two vectors.
// Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ Index = (*BruteForceIndex)(nil)
