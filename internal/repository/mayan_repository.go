package repository

import (
	"context"
	"fmt"

	"bridge-indexer/internal/models"

	"gorm.io/gorm"
)

// MayanRepository is the storage collaborator for the Mayan Swift decoders and the cctx generator.
type MayanRepository interface {
	ForwardedExists(ctx context.Context, blockchain, txHash string) (bool, error)
	CreateForwarded(ctx context.Context, fwd *models.MayanForwarded) error
	OrderExists(ctx context.Context, orderHash string) (bool, error)
	CreateOrder(ctx context.Context, order *models.MayanOrder) error
	RegisteredOrderExists(ctx context.Context, orderHash string) (bool, error)
	CreateRegisteredOrder(ctx context.Context, order *models.MayanRegisteredOrder) error
	FulfilledExistsByOrderHash(ctx context.Context, orderHash string) (bool, error)
	FulfilledExistsByState(ctx context.Context, stateAccount string) (bool, error)
	CreateFulfilled(ctx context.Context, f *models.MayanFulfilled) error
	UnlockedExistsByOrderHash(ctx context.Context, orderHash string) (bool, error)
	UnlockedExistsByState(ctx context.Context, stateAccount string) (bool, error)
	CreateUnlocked(ctx context.Context, u *models.MayanUnlocked) error
	RefundedExists(ctx context.Context, orderHash string) (bool, error)
	CreateRefunded(ctx context.Context, r *models.MayanRefunded) error
	AuctionBidExists(ctx context.Context, signature string) (bool, error)
	CreateAuctionBid(ctx context.Context, bid *models.MayanAuctionBid) error
	AuctionCloseExists(ctx context.Context, auctionState string) (bool, error)
	CreateAuctionClose(ctx context.Context, c *models.MayanAuctionClose) error

	ListForwarded(ctx context.Context) ([]*models.MayanForwarded, error)
	ListOrders(ctx context.Context) ([]*models.MayanOrder, error)
	ListRegisteredOrders(ctx context.Context) ([]*models.MayanRegisteredOrder, error)
	ListFulfilled(ctx context.Context) ([]*models.MayanFulfilled, error)
	ListUnlocked(ctx context.Context) ([]*models.MayanUnlocked, error)
	ListRefunded(ctx context.Context) ([]*models.MayanRefunded, error)
	ListAuctionBids(ctx context.Context) ([]*models.MayanAuctionBid, error)

	ListUnlockedWithoutFee(ctx context.Context, blockchain string) ([]*models.MayanUnlocked, error)
	UpdateUnlockedFee(ctx context.Context, id uint, fee string) error
}

type mayanRepository struct {
	db *gorm.DB
}

// NewMayanRepository creates a new MayanRepository instance
func NewMayanRepository(db *gorm.DB) MayanRepository {
	return &mayanRepository{db: db}
}

func (r *mayanRepository) check(ctx context.Context, what string, model interface{}, query string, args ...interface{}) (bool, error) {
	ok, err := exists(ctx, r.db, model, query, args...)
	if err != nil {
		return false, fmt.Errorf("check %s %v: %w", what, args, err)
	}
	return ok, nil
}

func (r *mayanRepository) create(ctx context.Context, what string, value interface{}) error {
	if err := r.db.WithContext(ctx).Create(value).Error; err != nil {
		return fmt.Errorf("create %s: %w", what, err)
	}
	return nil
}

func (r *mayanRepository) ForwardedExists(ctx context.Context, blockchain, txHash string) (bool, error) {
	return r.check(ctx, "forwarded", &models.MayanForwarded{}, "blockchain = ? AND transaction_hash = ?", blockchain, txHash)
}

func (r *mayanRepository) CreateForwarded(ctx context.Context, fwd *models.MayanForwarded) error {
	return r.create(ctx, "forwarded "+fwd.TransactionHash, fwd)
}

func (r *mayanRepository) OrderExists(ctx context.Context, orderHash string) (bool, error) {
	return r.check(ctx, "order", &models.MayanOrder{}, "order_hash = ?", orderHash)
}

func (r *mayanRepository) CreateOrder(ctx context.Context, order *models.MayanOrder) error {
	return r.create(ctx, "order "+order.OrderHash, order)
}

func (r *mayanRepository) RegisteredOrderExists(ctx context.Context, orderHash string) (bool, error) {
	return r.check(ctx, "registered order", &models.MayanRegisteredOrder{}, "order_hash = ?", orderHash)
}

func (r *mayanRepository) CreateRegisteredOrder(ctx context.Context, order *models.MayanRegisteredOrder) error {
	return r.create(ctx, "registered order "+order.OrderHash, order)
}

func (r *mayanRepository) FulfilledExistsByOrderHash(ctx context.Context, orderHash string) (bool, error) {
	return r.check(ctx, "fulfilled", &models.MayanFulfilled{}, "order_hash = ?", orderHash)
}

func (r *mayanRepository) FulfilledExistsByState(ctx context.Context, stateAccount string) (bool, error) {
	return r.check(ctx, "fulfilled", &models.MayanFulfilled{}, "state_account = ?", stateAccount)
}

func (r *mayanRepository) CreateFulfilled(ctx context.Context, f *models.MayanFulfilled) error {
	return r.create(ctx, "fulfilled "+f.TransactionHash, f)
}

func (r *mayanRepository) UnlockedExistsByOrderHash(ctx context.Context, orderHash string) (bool, error) {
	return r.check(ctx, "unlocked", &models.MayanUnlocked{}, "order_hash = ?", orderHash)
}

func (r *mayanRepository) UnlockedExistsByState(ctx context.Context, stateAccount string) (bool, error) {
	return r.check(ctx, "unlocked", &models.MayanUnlocked{}, "state_account = ?", stateAccount)
}

func (r *mayanRepository) CreateUnlocked(ctx context.Context, u *models.MayanUnlocked) error {
	return r.create(ctx, "unlocked "+u.TransactionHash, u)
}

func (r *mayanRepository) RefundedExists(ctx context.Context, orderHash string) (bool, error) {
	return r.check(ctx, "refunded", &models.MayanRefunded{}, "order_hash = ?", orderHash)
}

func (r *mayanRepository) CreateRefunded(ctx context.Context, ref *models.MayanRefunded) error {
	return r.create(ctx, "refunded "+ref.OrderHash, ref)
}

func (r *mayanRepository) AuctionBidExists(ctx context.Context, signature string) (bool, error) {
	return r.check(ctx, "auction bid", &models.MayanAuctionBid{}, "signature = ?", signature)
}

func (r *mayanRepository) CreateAuctionBid(ctx context.Context, bid *models.MayanAuctionBid) error {
	return r.create(ctx, "auction bid "+bid.Signature, bid)
}

func (r *mayanRepository) AuctionCloseExists(ctx context.Context, auctionState string) (bool, error) {
	return r.check(ctx, "auction close", &models.MayanAuctionClose{}, "auction_state = ?", auctionState)
}

func (r *mayanRepository) CreateAuctionClose(ctx context.Context, c *models.MayanAuctionClose) error {
	return r.create(ctx, "auction close "+c.AuctionState, c)
}

func (r *mayanRepository) ListForwarded(ctx context.Context) ([]*models.MayanForwarded, error) {
	var rows []*models.MayanForwarded
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list forwarded: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListOrders(ctx context.Context) ([]*models.MayanOrder, error) {
	var rows []*models.MayanOrder
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListRegisteredOrders(ctx context.Context) ([]*models.MayanRegisteredOrder, error) {
	var rows []*models.MayanRegisteredOrder
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list registered orders: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListFulfilled(ctx context.Context) ([]*models.MayanFulfilled, error) {
	var rows []*models.MayanFulfilled
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list fulfilled: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListUnlocked(ctx context.Context) ([]*models.MayanUnlocked, error) {
	var rows []*models.MayanUnlocked
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list unlocked: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListRefunded(ctx context.Context) ([]*models.MayanRefunded, error) {
	var rows []*models.MayanRefunded
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list refunded: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListAuctionBids(ctx context.Context) ([]*models.MayanAuctionBid, error) {
	var rows []*models.MayanAuctionBid
	if err := r.db.WithContext(ctx).Order("timestamp ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list auction bids: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) ListUnlockedWithoutFee(ctx context.Context, blockchain string) ([]*models.MayanUnlocked, error) {
	var rows []*models.MayanUnlocked
	err := r.db.WithContext(ctx).
		Where("fee IS NULL AND blockchain = ?", blockchain).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list unlocked without fee: %w", err)
	}
	return rows, nil
}

func (r *mayanRepository) UpdateUnlockedFee(ctx context.Context, id uint, fee string) error {
	err := r.db.WithContext(ctx).
		Model(&models.MayanUnlocked{}).
		Where("id = ?", id).
		Update("fee", fee).Error
	if err != nil {
		return fmt.Errorf("update unlocked %d fee: %w", id, err)
	}
	return nil
}
