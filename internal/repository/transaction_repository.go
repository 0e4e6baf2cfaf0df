package repository

import (
	"context"
	"errors"
	"fmt"

	"bridge-indexer/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TransactionRepository stores raw transaction metadata.
type TransactionRepository interface {
	Exists(ctx context.Context, blockchain, hash string) (bool, error)
	// Create inserts the transaction; an existing (blockchain, hash) row is left untouched.
	Create(ctx context.Context, tx *models.Transaction) error
	// UpdateMeta overwrites block, time, sender, fee and status of a stored row with the non-zero values of tx.
	UpdateMeta(ctx context.Context, tx *models.Transaction) error
	Get(ctx context.Context, blockchain, hash string) (*models.Transaction, bool, error)
	FindByHashes(ctx context.Context, hashes []string) ([]*models.Transaction, error)
}

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Exists(ctx context.Context, blockchain, hash string) (bool, error) {
	ok, err := exists(ctx, r.db, &models.Transaction{}, "blockchain = ? AND transaction_hash = ?", blockchain, hash)
	if err != nil {
		return false, fmt.Errorf("check transaction %s/%s: %w", blockchain, hash, err)
	}
	return ok, nil
}

func (r *transactionRepository) Create(ctx context.Context, tx *models.Transaction) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(tx).Error
	if err != nil {
		return fmt.Errorf("create transaction %s/%s: %w", tx.Blockchain, tx.TransactionHash, err)
	}
	return nil
}

func (r *transactionRepository) UpdateMeta(ctx context.Context, tx *models.Transaction) error {
	updates := map[string]interface{}{"status": tx.Status}
	if tx.BlockNumber != 0 {
		updates["block_number"] = tx.BlockNumber
	}
	if !tx.Timestamp.IsZero() {
		updates["timestamp"] = tx.Timestamp
	}
	if tx.FromAddress != "" {
		updates["from_address"] = tx.FromAddress
	}
	if tx.Fee != "" {
		updates["fee"] = tx.Fee
	}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("blockchain = ? AND transaction_hash = ?", tx.Blockchain, tx.TransactionHash).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("update transaction %s/%s: %w", tx.Blockchain, tx.TransactionHash, err)
	}
	return nil
}

func (r *transactionRepository) Get(ctx context.Context, blockchain, hash string) (*models.Transaction, bool, error) {
	var tx models.Transaction
	err := r.db.WithContext(ctx).
		Where("blockchain = ? AND transaction_hash = ?", blockchain, hash).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get transaction %s/%s: %w", blockchain, hash, err)
	}
	return &tx, true, nil
}

func (r *transactionRepository) FindByHashes(ctx context.Context, hashes []string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, part := range chunk(hashes, defaultBatchSize) {
		var txs []*models.Transaction
		if err := r.db.WithContext(ctx).Where("transaction_hash IN ?", part).Find(&txs).Error; err != nil {
			return nil, fmt.Errorf("find transactions: %w", err)
		}
		out = append(out, txs...)
	}
	return out, nil
}
