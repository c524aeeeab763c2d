// Package vector provides similarity search over chunk embeddings, backed
// by Milvus with a brute-force in-store fallback.
package vector

import (
	"context"

	"github.com/lexfisc/lexfisc/internal/model"
)

// Scope restricts a search to chunks visible to a tenant. A nil TenantID
// matches only shared chunks.
type Scope struct {
	TenantID *string
}

// Index is a similarity index over chunk embeddings.
type Index interface {
	// Insert indexes the chunks with their embeddings. Both slices have
	// the same length. Returned IDs are index-internal and parallel to
	// the input.
	Insert(ctx context.Context, chunks []*model.Chunk, embeddings [][]float32) ([]int64, error)

	// Search returns at most k chunks with cosine score >= minScore,
	// ordered by descending score. An empty result is not an error.
	Search(ctx context.Context, vector []float32, scope Scope, k int, minScore float32) ([]model.RetrievedChunk, error)

	// DeleteByDocument removes all indexed chunks of a document.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Ping reports whether the index is reachable.
	Ping(ctx context.Context) error

	// Name identifies the index implementation in logs and stats.
	Name() string
}
