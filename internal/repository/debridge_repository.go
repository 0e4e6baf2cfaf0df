package repository

import (
	"context"
	"fmt"

	"bridge-indexer/internal/models"

	"gorm.io/gorm"
)

// DeBridgeRepository is the storage collaborator for the DLN decoders and the cctx generator.
type DeBridgeRepository interface {
	CreatedOrderExists(ctx context.Context, orderID string) (bool, error)
	CreateCreatedOrder(ctx context.Context, order *models.DeBridgeCreatedOrder) error
	FulfilledOrderExists(ctx context.Context, orderID string) (bool, error)
	CreateFulfilledOrder(ctx context.Context, order *models.DeBridgeFulfilledOrder) error
	ClaimedUnlockExists(ctx context.Context, orderID string) (bool, error)
	CreateClaimedUnlock(ctx context.Context, unlock *models.DeBridgeClaimedUnlock) error

	ListCreatedOrders(ctx context.Context) ([]*models.DeBridgeCreatedOrder, error)
	ListFulfilledOrders(ctx context.Context) ([]*models.DeBridgeFulfilledOrder, error)
	ListClaimedUnlocks(ctx context.Context) ([]*models.DeBridgeClaimedUnlock, error)

	// middle-info / fee post pass
	ListCreatedOrdersWithoutMiddle(ctx context.Context, blockchains []string) ([]*models.DeBridgeCreatedOrder, error)
	ListFulfilledOrdersWithoutMiddle(ctx context.Context, blockchains []string) ([]*models.DeBridgeFulfilledOrder, error)
	UpdateCreatedOrderMiddleInfo(ctx context.Context, orderID, giveToken, giveAmount, middleToken, middleAmount string) error
	UpdateFulfilledOrderMiddleInfo(ctx context.Context, orderID, middleToken, middleAmount string) error
	ListClaimedUnlocksWithoutFee(ctx context.Context, blockchain string) ([]*models.DeBridgeClaimedUnlock, error)
	UpdateClaimedUnlockFee(ctx context.Context, orderID, fee string) error
}

type deBridgeRepository struct {
	db *gorm.DB
}

// NewDeBridgeRepository creates a new DeBridgeRepository instance
func NewDeBridgeRepository(db *gorm.DB) DeBridgeRepository {
	return &deBridgeRepository{db: db}
}

func (r *deBridgeRepository) CreatedOrderExists(ctx context.Context, orderID string) (bool, error) {
	ok, err := exists(ctx, r.db, &models.DeBridgeCreatedOrder{}, "order_id = ?", orderID)
	if err != nil {
		return false, fmt.Errorf("check created order %s: %w", orderID, err)
	}
	return ok, nil
}

func (r *deBridgeRepository) CreateCreatedOrder(ctx context.Context, order *models.DeBridgeCreatedOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create created order %s: %w", order.OrderID, err)
	}
	return nil
}

func (r *deBridgeRepository) FulfilledOrderExists(ctx context.Context, orderID string) (bool, error) {
	ok, err := exists(ctx, r.db, &models.DeBridgeFulfilledOrder{}, "order_id = ?", orderID)
	if err != nil {
		return false, fmt.Errorf("check fulfilled order %s: %w", orderID, err)
	}
	return ok, nil
}

func (r *deBridgeRepository) CreateFulfilledOrder(ctx context.Context, order *models.DeBridgeFulfilledOrder) error {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("create fulfilled order %s: %w", order.OrderID, err)
	}
	return nil
}

func (r *deBridgeRepository) ClaimedUnlockExists(ctx context.Context, orderID string) (bool, error) {
	ok, err := exists(ctx, r.db, &models.DeBridgeClaimedUnlock{}, "order_id = ?", orderID)
	if err != nil {
		return false, fmt.Errorf("check claimed unlock %s: %w", orderID, err)
	}
	return ok, nil
}

func (r *deBridgeRepository) CreateClaimedUnlock(ctx context.Context, unlock *models.DeBridgeClaimedUnlock) error {
	if err := r.db.WithContext(ctx).Create(unlock).Error; err != nil {
		return fmt.Errorf("create claimed unlock %s: %w", unlock.OrderID, err)
	}
	return nil
}

func (r *deBridgeRepository) ListCreatedOrders(ctx context.Context) ([]*models.DeBridgeCreatedOrder, error) {
	var orders []*models.DeBridgeCreatedOrder
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list created orders: %w", err)
	}
	return orders, nil
}

func (r *deBridgeRepository) ListFulfilledOrders(ctx context.Context) ([]*models.DeBridgeFulfilledOrder, error) {
	var orders []*models.DeBridgeFulfilledOrder
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list fulfilled orders: %w", err)
	}
	return orders, nil
}

func (r *deBridgeRepository) ListClaimedUnlocks(ctx context.Context) ([]*models.DeBridgeClaimedUnlock, error) {
	var unlocks []*models.DeBridgeClaimedUnlock
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&unlocks).Error; err != nil {
		return nil, fmt.Errorf("list claimed unlocks: %w", err)
	}
	return unlocks, nil
}

func (r *deBridgeRepository) ListCreatedOrdersWithoutMiddle(ctx context.Context, blockchains []string) ([]*models.DeBridgeCreatedOrder, error) {
	var orders []*models.DeBridgeCreatedOrder
	err := r.db.WithContext(ctx).
		Where("middle_token_address IS NULL AND blockchain IN ?", blockchains).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list created orders without middle info: %w", err)
	}
	return orders, nil
}

func (r *deBridgeRepository) ListFulfilledOrdersWithoutMiddle(ctx context.Context, blockchains []string) ([]*models.DeBridgeFulfilledOrder, error) {
	var orders []*models.DeBridgeFulfilledOrder
	err := r.db.WithContext(ctx).
		Where("middle_token_address IS NULL AND blockchain IN ?", blockchains).
		Order("id ASC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list fulfilled orders without middle info: %w", err)
	}
	return orders, nil
}

func (r *deBridgeRepository) UpdateCreatedOrderMiddleInfo(ctx context.Context, orderID, giveToken, giveAmount, middleToken, middleAmount string) error {
	err := r.db.WithContext(ctx).
		Model(&models.DeBridgeCreatedOrder{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"give_token_address":   giveToken,
			"give_amount":          giveAmount,
			"middle_token_address": middleToken,
			"middle_amount":        middleAmount,
		}).Error
	if err != nil {
		return fmt.Errorf("update created order %s middle info: %w", orderID, err)
	}
	return nil
}

func (r *deBridgeRepository) UpdateFulfilledOrderMiddleInfo(ctx context.Context, orderID, middleToken, middleAmount string) error {
	err := r.db.WithContext(ctx).
		Model(&models.DeBridgeFulfilledOrder{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"middle_token_address": middleToken,
			"middle_amount":        middleAmount,
		}).Error
	if err != nil {
		return fmt.Errorf("update fulfilled order %s middle info: %w", orderID, err)
	}
	return nil
}

func (r *deBridgeRepository) ListClaimedUnlocksWithoutFee(ctx context.Context, blockchain string) ([]*models.DeBridgeClaimedUnlock, error) {
	var unlocks []*models.DeBridgeClaimedUnlock
	err := r.db.WithContext(ctx).
		Where("fee IS NULL AND blockchain = ?", blockchain).
		Find(&unlocks).Error
	if err != nil {
		return nil, fmt.Errorf("list claimed unlocks without fee: %w", err)
	}
	return unlocks, nil
}

func (r *deBridgeRepository) UpdateClaimedUnlockFee(ctx context.Context, orderID, fee string) error {
	err := r.db.WithContext(ctx).
		Model(&models.DeBridgeClaimedUnlock{}).
		Where("order_id = ?", orderID).
		Update("fee", fee).Error
	if err != nil {
		return fmt.Errorf("update claimed unlock %s fee: %w", orderID, err)
	}
	return nil
}
