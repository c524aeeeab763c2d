package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/model"
)

type documents struct {
	db *gorm.DB
}

func newDocuments(db *gorm.DB) *documents {
	return &documents{db}
}

// Create creates a new document.
func (d *documents) Create(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Create(doc).Error
}

// Update updates an existing document.
func (d *documents) Update(ctx context.Context, doc *model.Document) error {
	return d.db.WithContext(ctx).Save(doc).Error
}

// Delete deletes a document by ID.
func (d *documents) Delete(ctx context.Context, id string) error {
	return d.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Document{}).Error
}

// Get retrieves a document by ID.
func (d *documents) Get(ctx context.Context, id string) (*model.Document, error) {
	var doc model.Document
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetByHash retrieves a tenant-visible document by its content hash.
func (d *documents) GetByHash(ctx context.Context, tenantID *string, hash string) (*model.Document, error) {
	var doc model.Document
	err := d.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("hash = ?", hash).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List lists tenant-visible documents with pagination.
func (d *documents) List(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.Document, error) {
	var count int64
	var docs []*model.Document

	query := d.db.WithContext(ctx).Model(&model.Document{}).Scopes(tenantScope(tenantID))
	if err := query.Count(&count).Error; err != nil {
		return 0, nil, err
	}

	err := d.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&docs).Error
	if err != nil {
		return 0, nil, err
	}

	return count, docs, nil
}
