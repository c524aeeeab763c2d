package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/model"
)

type ingestJobs struct {
	db *gorm.DB
}

func newIngestJobs(db *gorm.DB) *ingestJobs {
	return &ingestJobs{db}
}

// Create creates a new ingest job.
func (j *ingestJobs) Create(ctx context.Context, job *model.IngestJob) error {
	return j.db.WithContext(ctx).Create(job).Error
}

// Update updates an existing ingest job.
func (j *ingestJobs) Update(ctx context.Context, job *model.IngestJob) error {
	return j.db.WithContext(ctx).Save(job).Error
}

// Get retrieves an ingest job by ID.
func (j *ingestJobs) Get(ctx context.Context, id string) (*model.IngestJob, error) {
	var job model.IngestJob
	if err := j.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// GetActiveByDocument returns the pending or processing job for a document.
func (j *ingestJobs) GetActiveByDocument(ctx context.Context, documentID string) (*model.IngestJob, error) {
	var job model.IngestJob
	err := j.db.WithContext(ctx).
		Where("document_id = ? AND status IN ?", documentID, []string{model.JobStatusPending, model.JobStatusProcessing}).
		First(&job).Error
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByDocument retrieves all jobs of a document, newest first.
func (j *ingestJobs) ListByDocument(ctx context.Context, documentID string) ([]*model.IngestJob, error) {
	var jobs []*model.IngestJob
	err := j.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// DeleteByDocument deletes all jobs of a document.
func (j *ingestJobs) DeleteByDocument(ctx context.Context, documentID string) error {
	return j.db.WithContext(ctx).Where("document_id = ?", documentID).Delete(&model.IngestJob{}).Error
}
