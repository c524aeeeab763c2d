// Package store provides persistence for the knowledge service.
package store

import (
	"context"

	"github.com/lexfisc/lexfisc/internal/model"
)

// Factory defines the factory interface for creating stores.
type Factory interface {
	Documents() DocumentStore
	Chunks() ChunkStore
	IngestJobs() IngestJobStore
	Sessions() SessionStore
	AutoMigrate() error
	Close() error
}

// DocumentStore defines the document storage interface. Read paths scope
// by tenant: a nil tenantID sees only shared documents, a non-nil one sees
// its own plus shared.
type DocumentStore interface {
	Create(ctx context.Context, doc *model.Document) error
	Update(ctx context.Context, doc *model.Document) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*model.Document, error)
	GetByHash(ctx context.Context, tenantID *string, hash string) (*model.Document, error)
	List(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.Document, error)
}

// ChunkStore defines the chunk storage interface.
type ChunkStore interface {
	CreateBatch(ctx context.Context, chunks []*model.Chunk) error
	GetByIDs(ctx context.Context, ids []int64) ([]*model.Chunk, error)
	ListByDocument(ctx context.Context, documentID string) ([]*model.Chunk, error)
	// ListCandidates returns at most limit tenant-visible chunks for the
	// brute-force similarity scan.
	ListCandidates(ctx context.Context, tenantID *string, limit int) ([]*model.Chunk, error)
	// UpdateVectorIDs writes the vector index IDs back onto chunk rows.
	// Both slices are parallel and equally long.
	UpdateVectorIDs(ctx context.Context, ids []int64, vectorIDs []int64) error
	DeleteByDocument(ctx context.Context, documentID string) error
	Count(ctx context.Context) (int64, error)
}

// IngestJobStore defines the ingest job storage interface.
type IngestJobStore interface {
	Create(ctx context.Context, job *model.IngestJob) error
	Update(ctx context.Context, job *model.IngestJob) error
	Get(ctx context.Context, id string) (*model.IngestJob, error)
	// GetActiveByDocument returns the pending or processing job for a
	// document, or gorm.ErrRecordNotFound when none is running.
	GetActiveByDocument(ctx context.Context, documentID string) (*model.IngestJob, error)
	ListByDocument(ctx context.Context, documentID string) ([]*model.IngestJob, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}

// SessionStore defines the QA session log interface. The log is append-only.
type SessionStore interface {
	Create(ctx context.Context, session *model.QASession) error
	List(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.QASession, error)
}
