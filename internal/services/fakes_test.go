package services

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"time"

	"bridge-indexer/internal/models"
	"bridge-indexer/internal/types"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// memDeBridge is an in-memory DeBridgeRepository keyed by order id.
type memDeBridge struct {
	mu        sync.Mutex
	created   map[string]*models.DeBridgeCreatedOrder
	fulfilled map[string]*models.DeBridgeFulfilledOrder
	claimed   map[string]*models.DeBridgeClaimedUnlock
	failWrite error
}

func newMemDeBridge() *memDeBridge {
	return &memDeBridge{
		created:   make(map[string]*models.DeBridgeCreatedOrder),
		fulfilled: make(map[string]*models.DeBridgeFulfilledOrder),
		claimed:   make(map[string]*models.DeBridgeClaimedUnlock),
	}
}

func (m *memDeBridge) CreatedOrderExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.created[id]
	return ok, nil
}

func (m *memDeBridge) CreateCreatedOrder(_ context.Context, o *models.DeBridgeCreatedOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrite != nil {
		return m.failWrite
	}
	m.created[o.OrderID] = o
	return nil
}

func (m *memDeBridge) FulfilledOrderExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.fulfilled[id]
	return ok, nil
}

func (m *memDeBridge) CreateFulfilledOrder(_ context.Context, o *models.DeBridgeFulfilledOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fulfilled[o.OrderID] = o
	return nil
}

func (m *memDeBridge) ClaimedUnlockExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.claimed[id]
	return ok, nil
}

func (m *memDeBridge) CreateClaimedUnlock(_ context.Context, u *models.DeBridgeClaimedUnlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.claimed[u.OrderID] = u
	return nil
}

func (m *memDeBridge) ListCreatedOrders(context.Context) ([]*models.DeBridgeCreatedOrder, error) {
	var out []*models.DeBridgeCreatedOrder
	for _, o := range m.created {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (m *memDeBridge) ListFulfilledOrders(context.Context) ([]*models.DeBridgeFulfilledOrder, error) {
	var out []*models.DeBridgeFulfilledOrder
	for _, o := range m.fulfilled {
		out = append(out, o)
	}
	return out, nil
}

func (m *memDeBridge) ListClaimedUnlocks(context.Context) ([]*models.DeBridgeClaimedUnlock, error) {
	var out []*models.DeBridgeClaimedUnlock
	for _, u := range m.claimed {
		out = append(out, u)
	}
	return out, nil
}

func (m *memDeBridge) ListCreatedOrdersWithoutMiddle(_ context.Context, chains []string) ([]*models.DeBridgeCreatedOrder, error) {
	var out []*models.DeBridgeCreatedOrder
	for _, o := range m.created {
		if o.MiddleTokenAddress == nil && contains(chains, o.Blockchain) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out, nil
}

func (m *memDeBridge) ListFulfilledOrdersWithoutMiddle(_ context.Context, chains []string) ([]*models.DeBridgeFulfilledOrder, error) {
	var out []*models.DeBridgeFulfilledOrder
	for _, o := range m.fulfilled {
		if o.MiddleTokenAddress == nil && contains(chains, o.Blockchain) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *memDeBridge) UpdateCreatedOrderMiddleInfo(_ context.Context, id, giveToken, giveAmount, middleToken, middleAmount string) error {
	o, ok := m.created[id]
	if !ok {
		return errors.New("not found")
	}
	o.GiveTokenAddress, o.GiveAmount = giveToken, giveAmount
	o.MiddleTokenAddress, o.MiddleAmount = strPtr(middleToken), strPtr(middleAmount)
	return nil
}

func (m *memDeBridge) UpdateFulfilledOrderMiddleInfo(_ context.Context, id, middleToken, middleAmount string) error {
	o, ok := m.fulfilled[id]
	if !ok {
		return errors.New("not found")
	}
	o.MiddleTokenAddress, o.MiddleAmount = strPtr(middleToken), strPtr(middleAmount)
	return nil
}

func (m *memDeBridge) ListClaimedUnlocksWithoutFee(_ context.Context, chain string) ([]*models.DeBridgeClaimedUnlock, error) {
	var out []*models.DeBridgeClaimedUnlock
	for _, u := range m.claimed {
		if u.Fee == nil && u.Blockchain == chain {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memDeBridge) UpdateClaimedUnlockFee(_ context.Context, id, fee string) error {
	m.claimed[id].Fee = strPtr(fee)
	return nil
}

// memMayan is an in-memory MayanRepository.
type memMayan struct {
	forwarded  []*models.MayanForwarded
	orders     []*models.MayanOrder
	registered []*models.MayanRegisteredOrder
	fulfilled  []*models.MayanFulfilled
	unlocked   []*models.MayanUnlocked
	refunded   []*models.MayanRefunded
	bids       []*models.MayanAuctionBid
	closes     []*models.MayanAuctionClose

	forwardedLookups int
}

func newMemMayan() *memMayan { return &memMayan{} }

func (m *memMayan) ForwardedExists(_ context.Context, chain, tx string) (bool, error) {
	m.forwardedLookups++
	for _, f := range m.forwarded {
		if f.Blockchain == chain && f.TransactionHash == tx {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateForwarded(_ context.Context, f *models.MayanForwarded) error {
	m.forwarded = append(m.forwarded, f)
	return nil
}

func (m *memMayan) OrderExists(_ context.Context, hash string) (bool, error) {
	for _, o := range m.orders {
		if o.OrderHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateOrder(_ context.Context, o *models.MayanOrder) error {
	m.orders = append(m.orders, o)
	return nil
}

func (m *memMayan) RegisteredOrderExists(_ context.Context, hash string) (bool, error) {
	for _, r := range m.registered {
		if r.OrderHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateRegisteredOrder(_ context.Context, r *models.MayanRegisteredOrder) error {
	m.registered = append(m.registered, r)
	return nil
}

func (m *memMayan) FulfilledExistsByOrderHash(_ context.Context, hash string) (bool, error) {
	for _, f := range m.fulfilled {
		if f.OrderHash != nil && *f.OrderHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) FulfilledExistsByState(_ context.Context, state string) (bool, error) {
	for _, f := range m.fulfilled {
		if f.StateAccount != nil && *f.StateAccount == state {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateFulfilled(_ context.Context, f *models.MayanFulfilled) error {
	m.fulfilled = append(m.fulfilled, f)
	return nil
}

func (m *memMayan) UnlockedExistsByOrderHash(_ context.Context, hash string) (bool, error) {
	for _, u := range m.unlocked {
		if u.OrderHash != nil && *u.OrderHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) UnlockedExistsByState(_ context.Context, state string) (bool, error) {
	for _, u := range m.unlocked {
		if u.StateAccount != nil && *u.StateAccount == state {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateUnlocked(_ context.Context, u *models.MayanUnlocked) error {
	m.unlocked = append(m.unlocked, u)
	return nil
}

func (m *memMayan) RefundedExists(_ context.Context, hash string) (bool, error) {
	for _, r := range m.refunded {
		if r.OrderHash == hash {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateRefunded(_ context.Context, r *models.MayanRefunded) error {
	m.refunded = append(m.refunded, r)
	return nil
}

func (m *memMayan) AuctionBidExists(_ context.Context, sig string) (bool, error) {
	for _, b := range m.bids {
		if b.Signature == sig {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateAuctionBid(_ context.Context, b *models.MayanAuctionBid) error {
	m.bids = append(m.bids, b)
	return nil
}

func (m *memMayan) AuctionCloseExists(_ context.Context, state string) (bool, error) {
	for _, c := range m.closes {
		if c.AuctionState == state {
			return true, nil
		}
	}
	return false, nil
}

func (m *memMayan) CreateAuctionClose(_ context.Context, c *models.MayanAuctionClose) error {
	m.closes = append(m.closes, c)
	return nil
}

func (m *memMayan) ListForwarded(context.Context) ([]*models.MayanForwarded, error) {
	return m.forwarded, nil
}

func (m *memMayan) ListOrders(context.Context) ([]*models.MayanOrder, error) { return m.orders, nil }

func (m *memMayan) ListRegisteredOrders(context.Context) ([]*models.MayanRegisteredOrder, error) {
	return m.registered, nil
}

func (m *memMayan) ListFulfilled(context.Context) ([]*models.MayanFulfilled, error) {
	return m.fulfilled, nil
}

func (m *memMayan) ListUnlocked(context.Context) ([]*models.MayanUnlocked, error) {
	return m.unlocked, nil
}

func (m *memMayan) ListRefunded(context.Context) ([]*models.MayanRefunded, error) {
	return m.refunded, nil
}

func (m *memMayan) ListAuctionBids(context.Context) ([]*models.MayanAuctionBid, error) {
	return m.bids, nil
}

func (m *memMayan) ListUnlockedWithoutFee(_ context.Context, chain string) ([]*models.MayanUnlocked, error) {
	var out []*models.MayanUnlocked
	for _, u := range m.unlocked {
		if u.Fee == nil && u.Blockchain == chain {
			out = append(out, u)
		}
	}
	return out, nil
}

func (m *memMayan) UpdateUnlockedFee(_ context.Context, id uint, fee string) error {
	for _, u := range m.unlocked {
		if u.ID == id {
			u.Fee = strPtr(fee)
			return nil
		}
	}
	return errors.New("not found")
}

// memTxs is an in-memory TransactionRepository.
type memTxs struct {
	rows      map[string]*models.Transaction
	failFor   map[string]bool // hashes whose Create fails
	metaFills int
}

func newMemTxs(txs ...*models.Transaction) *memTxs {
	m := &memTxs{rows: make(map[string]*models.Transaction)}
	for _, tx := range txs {
		m.rows[txKey(tx.Blockchain, tx.TransactionHash)] = tx
	}
	return m
}

func (m *memTxs) Exists(_ context.Context, chain, hash string) (bool, error) {
	_, ok := m.rows[txKey(chain, hash)]
	return ok, nil
}

func (m *memTxs) Create(_ context.Context, tx *models.Transaction) error {
	if m.failFor[tx.TransactionHash] {
		return errors.New("insert rejected")
	}
	if _, ok := m.rows[txKey(tx.Blockchain, tx.TransactionHash)]; !ok {
		m.rows[txKey(tx.Blockchain, tx.TransactionHash)] = tx
	}
	return nil
}

func (m *memTxs) UpdateMeta(_ context.Context, tx *models.Transaction) error {
	stored, ok := m.rows[txKey(tx.Blockchain, tx.TransactionHash)]
	if !ok {
		return errors.New("no such transaction")
	}
	m.metaFills++
	stored.Status = tx.Status
	if !tx.Timestamp.IsZero() {
		stored.Timestamp = tx.Timestamp
	}
	if tx.FromAddress != "" {
		stored.FromAddress = tx.FromAddress
	}
	if tx.Fee != "" {
		stored.Fee = tx.Fee
	}
	return nil
}

func (m *memTxs) Get(_ context.Context, chain, hash string) (*models.Transaction, bool, error) {
	tx, ok := m.rows[txKey(chain, hash)]
	return tx, ok, nil
}

func (m *memTxs) FindByHashes(_ context.Context, hashes []string) ([]*models.Transaction, error) {
	var out []*models.Transaction
	for _, tx := range m.rows {
		if contains(hashes, tx.TransactionHash) {
			out = append(out, tx)
		}
	}
	return out, nil
}

// memCctx is an in-memory CctxRepository.
type memCctx struct {
	tables   map[models.Bridge][]*models.CrossChainTransaction
	rebuilds int
}

func newMemCctx() *memCctx {
	return &memCctx{tables: make(map[models.Bridge][]*models.CrossChainTransaction)}
}

func (m *memCctx) Rebuild(_ context.Context, bridge models.Bridge, rows []*models.CrossChainTransaction) error {
	m.tables[bridge] = rows
	m.rebuilds++
	return nil
}

func (m *memCctx) List(_ context.Context, bridge models.Bridge, page, limit int) ([]*models.CrossChainTransaction, int64, error) {
	rows := m.tables[bridge]
	from := (page - 1) * limit
	if from >= len(rows) {
		return nil, int64(len(rows)), nil
	}
	to := from + limit
	if to > len(rows) {
		to = len(rows)
	}
	return rows[from:to], int64(len(rows)), nil
}

func (m *memCctx) Get(_ context.Context, bridge models.Bridge, id string) (*models.CrossChainTransaction, bool, error) {
	for _, r := range m.tables[bridge] {
		if r.IntentID == id {
			return r, true, nil
		}
	}
	return nil, false, nil
}

func (m *memCctx) Count(_ context.Context, bridge models.Bridge) (int64, error) {
	return int64(len(m.tables[bridge])), nil
}

func (m *memCctx) row(bridge models.Bridge, id string) *models.CrossChainTransaction {
	r, _, _ := m.Get(context.Background(), bridge, id)
	return r
}

// memFailed records failed events.
type memFailed struct {
	events []*models.FailedEvent
}

func (m *memFailed) Create(_ context.Context, e *models.FailedEvent) error {
	m.events = append(m.events, e)
	return nil
}

func (m *memFailed) FindByRun(_ context.Context, runID string) ([]*models.FailedEvent, error) {
	var out []*models.FailedEvent
	for _, e := range m.events {
		if e.RunID == runID {
			out = append(out, e)
		}
	}
	return out, nil
}

// recordingValuator remembers what it was asked to price.
type recordingValuator struct {
	tuples  []types.ValuationTuple
	from    time.Time
	to      time.Time
	applied []models.Bridge
}

func (v *recordingValuator) Prepare(_ context.Context, _ models.Bridge, tuples []types.ValuationTuple, from, to time.Time) error {
	v.tuples, v.from, v.to = tuples, from, to
	return nil
}

func (v *recordingValuator) Apply(_ context.Context, bridge models.Bridge) error {
	v.applied = append(v.applied, bridge)
	return nil
}
