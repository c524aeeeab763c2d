package vector

import (
	"context"

	"github.com/kart-io/logger"

	"github.com/lexfisc/lexfisc/internal/model"
)

// FallbackIndex routes to a primary index and transparently falls back to
// a secondary one when the primary fails. Insert failures on the primary
// are tolerated: the secondary scans the relational store, so ingested
// chunks stay searchable either way.
type FallbackIndex struct {
	primary    Index
	secondary  Index
	onFallback func()
}

// NewFallbackIndex wires the two indexes. onFallback is invoked once per
// degraded operation and may be nil.
func NewFallbackIndex(primary, secondary Index, onFallback func()) *FallbackIndex {
	return &FallbackIndex{primary: primary, secondary: secondary, onFallback: onFallback}
}

// Name identifies the active primary implementation.
func (f *FallbackIndex) Name() string {
	return f.primary.Name() + "+" + f.secondary.Name()
}

// Ping succeeds when either index is reachable.
func (f *FallbackIndex) Ping(ctx context.Context) error {
	if err := f.primary.Ping(ctx); err == nil {
		return nil
	}
	return f.secondary.Ping(ctx)
}

// Insert indexes into the primary; on failure the chunks remain
// searchable through the secondary scan.
func (f *FallbackIndex) Insert(ctx context.Context, chunks []*model.Chunk, embeddings [][]float32) ([]int64, error) {
	ids, err := f.primary.Insert(ctx, chunks, embeddings)
	if err != nil {
		logger.Warnw("vector index insert failed, relying on fallback scan",
			"index", f.primary.Name(), "chunks", len(chunks), "error", err.Error())
		f.degraded()
		return f.secondary.Insert(ctx, chunks, embeddings)
	}
	return ids, nil
}

// Search queries the primary and falls back per-query on error.
func (f *FallbackIndex) Search(ctx context.Context, vector []float32, scope Scope, k int, minScore float32) ([]model.RetrievedChunk, error) {
	results, err := f.primary.Search(ctx, vector, scope, k, minScore)
	if err == nil {
		return results, nil
	}

	logger.Warnw("vector search failed, falling back",
		"index", f.primary.Name(), "fallback", f.secondary.Name(), "error", err.Error())
	f.degraded()
	return f.secondary.Search(ctx, vector, scope, k, minScore)
}

// DeleteByDocument deletes from both indexes; the primary error wins.
func (f *FallbackIndex) DeleteByDocument(ctx context.Context, documentID string) error {
	err := f.primary.DeleteByDocument(ctx, documentID)
	if serr := f.secondary.DeleteByDocument(ctx, documentID); err == nil {
		err = serr
	}
	return err
}

func (f *FallbackIndex) degraded() {
	if f.onFallback != nil {
		f.onFallback()
	}
}

var _ Index = (*FallbackIndex)(nil)
