package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/model"
)

type chunks struct {
	db *gorm.DB
}

func newChunks(db *gorm.DB) *chunks {
	return &chunks{db}
}

// CreateBatch inserts a batch of chunks.
func (c *chunks) CreateBatch(ctx context.Context, batch []*model.Chunk) error {
	if len(batch) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).Create(batch).Error
}

// GetByIDs retrieves chunks by their IDs.
func (c *chunks) GetByIDs(ctx context.Context, ids []int64) ([]*model.Chunk, error) {
	if len(ids) == 0 {
		return []*model.Chunk{}, nil
	}
	var result []*model.Chunk
	if err := c.db.WithContext(ctx).Where("id IN ?", ids).Find(&result).Error; err != nil {
		return nil, err
	}
	return result, nil
}

// ListByDocument retrieves all chunks of a document in ordinal order.
func (c *chunks) ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error) {
	var result []*model.Chunk
	err := c.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("ordinal ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListCandidates returns at most limit tenant-visible chunks for the
// brute-force similarity scan.
func (c *chunks) ListCandidates(ctx context.Context, tenantID *string, limit int) ([]*model.Chunk, error) {
	var result []*model.Chunk
	err := c.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateVectorIDs writes vector index IDs back onto chunk rows.
func (c *chunks) UpdateVectorIDs(ctx context.Context, ids []int64, vectorIDs []int64) error {
	if len(ids) != len(vectorIDs) {
		return gorm.ErrInvalidData
	}
	for i, id := range ids {
		err := c.db.WithContext(ctx).
			Model(&model.Chunk{}).
			Where("id = ?", id).
			Update("vector_id", vectorIDs[i]).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// DeleteByDocument deletes all chunks of a document.
func (c *chunks) DeleteByDocument(ctx context.Context, documentID string) error {
	return c.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.Chunk{}).Error
}

// Count returns the total number of chunks.
func (c *chunks) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := c.db.WithContext(ctx).Model(&model.Chunk{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
