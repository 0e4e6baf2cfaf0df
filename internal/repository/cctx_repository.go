package repository

import (
	"context"
	"errors"
	"fmt"

	"bridge-indexer/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// CctxRepository owns the per-bridge cross-chain transaction tables.
type CctxRepository interface {
	// Rebuild replaces every row of the bridge's table in one transaction.
	Rebuild(ctx context.Context, bridge models.Bridge, rows []*models.CrossChainTransaction) error
	List(ctx context.Context, bridge models.Bridge, page, limit int) ([]*models.CrossChainTransaction, int64, error)
	Get(ctx context.Context, bridge models.Bridge, intentID string) (*models.CrossChainTransaction, bool, error)
	Count(ctx context.Context, bridge models.Bridge) (int64, error)
}

type cctxRepository struct {
	db *gorm.DB
}

// NewCctxRepository creates a new CctxRepository instance
func NewCctxRepository(db *gorm.DB) CctxRepository {
	return &cctxRepository{db: db}
}

func (r *cctxRepository) Rebuild(ctx context.Context, bridge models.Bridge, rows []*models.CrossChainTransaction) error {
	table := bridge.CctxTable()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("TRUNCATE TABLE " + pq.QuoteIdentifier(table)).Error; err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
		if len(rows) == 0 {
			return nil
		}
		if err := tx.Table(table).CreateInBatches(rows, defaultBatchSize).Error; err != nil {
			return fmt.Errorf("insert into %s: %w", table, err)
		}
		return nil
	})
}

func (r *cctxRepository) List(ctx context.Context, bridge models.Bridge, page, limit int) ([]*models.CrossChainTransaction, int64, error) {
	var rows []*models.CrossChainTransaction
	var total int64

	query := r.db.WithContext(ctx).Table(bridge.CctxTable())
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", bridge.CctxTable(), err)
	}

	offset := (page - 1) * limit
	err := r.db.WithContext(ctx).Table(bridge.CctxTable()).
		Offset(offset).Limit(limit).
		Order("src_timestamp DESC").
		Find(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", bridge.CctxTable(), err)
	}
	return rows, total, nil
}

func (r *cctxRepository) Get(ctx context.Context, bridge models.Bridge, intentID string) (*models.CrossChainTransaction, bool, error) {
	var row models.CrossChainTransaction
	err := r.db.WithContext(ctx).Table(bridge.CctxTable()).
		Where("intent_id = ?", intentID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s %s: %w", bridge.CctxTable(), intentID, err)
	}
	return &row, true, nil
}

func (r *cctxRepository) Count(ctx context.Context, bridge models.Bridge) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Table(bridge.CctxTable()).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", bridge.CctxTable(), err)
	}
	return total, nil
}
