package repository

import (
	"context"
	"fmt"

	"bridge-indexer/internal/models"

	"gorm.io/gorm"
)

// FailedEventRepository keeps a trail of events skipped because they failed to decode.
type FailedEventRepository interface {
	Create(ctx context.Context, event *models.FailedEvent) error
	FindByRun(ctx context.Context, runID string) ([]*models.FailedEvent, error)
}

type failedEventRepository struct {
	db *gorm.DB
}

// NewFailedEventRepository creates a new FailedEventRepository instance
func NewFailedEventRepository(db *gorm.DB) FailedEventRepository {
	return &failedEventRepository{db: db}
}

func (r *failedEventRepository) Create(ctx context.Context, event *models.FailedEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("create failed event: %w", err)
	}
	return nil
}

func (r *failedEventRepository) FindByRun(ctx context.Context, runID string) ([]*models.FailedEvent, error) {
	var events []*models.FailedEvent
	if err := r.db.WithContext(ctx).Where("run_id = ?", runID).Order("created_at ASC").Find(&events).Error; err != nil {
		return nil, fmt.Errorf("find failed events for run %s: %w", runID, err)
	}
	return events, nil
}
