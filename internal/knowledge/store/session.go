package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/lexfisc/lexfisc/internal/model"
)

type sessions struct {
	db *gorm.DB
}

func newSessions(db *gorm.DB) *sessions {
	return &sessions{db}
}

// Create appends a QA session to the log.
func (s *sessions) Create(ctx context.Context, session *model.QASession) error {
	return s.db.WithContext(ctx).Create(session).Error
}

// List lists a tenant's sessions with pagination, newest first.
func (s *sessions) List(ctx context.Context, tenantID *string, offset, limit int) (int64, []*model.QASession, error) {
	var count int64
	var result []*model.QASession

	query := s.db.WithContext(ctx).Model(&model.QASession{}).Scopes(tenantScope(tenantID))
	if err := query.Count(&count).Error; err != nil {
		return 0, nil, err
	}

	err := s.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&result).Error
	if err != nil {
		return 0, nil, err
	}

	return count, result, nil
}
