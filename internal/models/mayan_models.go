package models

import (
	"time"
)

// MayanForwarded is a Mayan Forwarder event whose payload targets the Swift contract.
// One row per transaction; joined to MayanOrder through the transaction hash.
type MayanForwarded struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;uniqueIndex:idx_mayan_forwarded_chain_tx"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;uniqueIndex:idx_mayan_forwarded_chain_tx"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`
	EventName       string    `json:"event_name" gorm:"size:32"`
	MayanProtocol   string    `json:"mayan_protocol" gorm:"size:66"`
	Method          string    `json:"method" gorm:"size:32"` // createOrderWithEth | createOrderWithToken

	// what the user sent to the forwarder
	TokenIn  string `json:"token_in" gorm:"size:66"`
	AmountIn string `json:"amount_in" gorm:"type:numeric(78,0)"`

	// swap-and-forward events only
	SwapProtocol *string `json:"swap_protocol" gorm:"size:66"`
	MiddleToken  *string `json:"middle_token" gorm:"size:66"`
	MiddleAmount *string `json:"middle_amount" gorm:"type:numeric(78,0)"`

	// Swift OrderParams
	Trader       string `json:"trader" gorm:"size:66"`
	TokenOut     string `json:"token_out" gorm:"size:66"`
	MinAmountOut string `json:"min_amount_out" gorm:"type:numeric(78,0)"`
	GasDrop      string `json:"gas_drop" gorm:"type:numeric(78,0)"`
	CancelFee    string `json:"cancel_fee" gorm:"type:numeric(78,0)"`
	RefundFee    string `json:"refund_fee" gorm:"type:numeric(78,0)"`
	Deadline     uint64 `json:"deadline"`
	DestAddr     string `json:"dest_addr" gorm:"size:66"`
	DestChain    string `json:"dest_chain" gorm:"size:32"`
	ReferrerAddr string `json:"referrer_addr" gorm:"size:66"`
	ReferrerBps  uint8  `json:"referrer_bps"`
	AuctionMode  uint8  `json:"auction_mode"`
	Random       string `json:"random" gorm:"size:66"`

	CreatedAt time.Time `json:"created_at"`
}

func (MayanForwarded) TableName() string {
	return "mayan_forwarded"
}

// MayanOrder Swift OrderCreated (EVM) / init_order (Solana).
// EVM rows carry only the hash; order details come from MayanForwarded.
type MayanOrder struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderHash       string    `json:"order_hash" gorm:"size:66;uniqueIndex;not null"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`

	// Solana init_order
	StateAccount *string `json:"state_account" gorm:"size:66;index"`
	Trader       string  `json:"trader" gorm:"size:66"`
	TokenIn      string  `json:"token_in" gorm:"size:66"`
	AmountIn     *string `json:"amount_in" gorm:"type:numeric(78,0)"`
	DestChain    string  `json:"dest_chain" gorm:"size:32"`
	DestAddr     string  `json:"dest_addr" gorm:"size:66"`
	TokenOut     string  `json:"token_out" gorm:"size:66"`
	MinAmountOut *string `json:"min_amount_out" gorm:"type:numeric(78,0)"`
	GasDrop      *string `json:"gas_drop" gorm:"type:numeric(78,0)"`
	CancelFee    *string `json:"cancel_fee" gorm:"type:numeric(78,0)"`
	RefundFee    *string `json:"refund_fee" gorm:"type:numeric(78,0)"`
	Deadline     uint64  `json:"deadline"`
	ReferrerAddr string  `json:"referrer_addr" gorm:"size:66"`
	ReferrerBps  uint8   `json:"referrer_bps"`
	MayanBps     uint8   `json:"mayan_bps"`
	AuctionMode  uint8   `json:"auction_mode"`

	// set when the trader swapped into the deposited token in the same transaction;
	// TokenIn/AmountIn then hold the original token and amount
	MiddleToken  *string `json:"middle_token" gorm:"size:66"`
	MiddleAmount *string `json:"middle_amount" gorm:"type:numeric(78,0)"`

	CreatedAt time.Time `json:"created_at"`
}

func (MayanOrder) TableName() string {
	return "mayan_orders"
}

// MayanRegisteredOrder Solana register_order: binds a destination state account to an order hash.
type MayanRegisteredOrder struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderHash    string    `json:"order_hash" gorm:"size:66;uniqueIndex;not null"`
	StateAccount string    `json:"state_account" gorm:"size:66;not null;index"`
	Blockchain   string    `json:"blockchain" gorm:"size:32;not null"`
	Signature    string    `json:"signature" gorm:"size:100;not null"`
	Slot         uint64    `json:"slot"`
	Timestamp    time.Time `json:"timestamp"`
	SrcChain     string    `json:"src_chain" gorm:"size:32"`
	Trader       string    `json:"trader" gorm:"size:66"`
	TokenIn      string    `json:"token_in" gorm:"size:66"`
	DestChain    string    `json:"dest_chain" gorm:"size:32"`
	DestAddr     string    `json:"dest_addr" gorm:"size:66"`
	TokenOut     string    `json:"token_out" gorm:"size:66"`
	MinAmountOut string    `json:"min_amount_out" gorm:"type:numeric(78,0)"`
	Deadline     uint64    `json:"deadline"`
	AuctionMode  uint8     `json:"auction_mode"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MayanRegisteredOrder) TableName() string {
	return "mayan_registered_orders"
}

// MayanFulfilled Swift OrderFulfilled (EVM, keyed by order hash) / fulfill (Solana, keyed by state account).
type MayanFulfilled struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderHash       *string   `json:"order_hash" gorm:"size:66;uniqueIndex"`
	StateAccount    *string   `json:"state_account" gorm:"size:66;uniqueIndex"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`
	Sequence        *uint64   `json:"sequence"`
	NetAmount       string    `json:"net_amount" gorm:"type:numeric(78,0)"`
	Driver          string    `json:"driver" gorm:"size:66"`
	TokenOut        string    `json:"token_out" gorm:"size:66"` // Solana only
	Recipient       string    `json:"recipient" gorm:"size:66"` // Solana only

	// token the driver spent before swapping into the output token
	MiddleToken  *string `json:"middle_token" gorm:"size:66"`
	MiddleAmount *string `json:"middle_amount" gorm:"type:numeric(78,0)"`

	CreatedAt time.Time `json:"created_at"`
}

func (MayanFulfilled) TableName() string {
	return "mayan_fulfilled"
}

// MayanUnlocked Swift OrderUnlocked (EVM, keyed by order hash) / unlock (Solana, keyed by state account).
type MayanUnlocked struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderHash       *string   `json:"order_hash" gorm:"size:66;uniqueIndex"`
	StateAccount    *string   `json:"state_account" gorm:"size:66;uniqueIndex"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp"`
	Unlocker        string    `json:"unlocker" gorm:"size:66"`
	Fee             *string   `json:"fee" gorm:"type:numeric(78,0)"` // Solana only, filled by the post pass
	CreatedAt       time.Time `json:"created_at"`
}

func (MayanUnlocked) TableName() string {
	return "mayan_unlocked"
}

// MayanRefunded Swift OrderRefunded (EVM).
type MayanRefunded struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderHash       string    `json:"order_hash" gorm:"size:66;uniqueIndex;not null"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp"`
	NetAmount       string    `json:"net_amount" gorm:"type:numeric(78,0)"`
	CreatedAt       time.Time `json:"created_at"`
}

func (MayanRefunded) TableName() string {
	return "mayan_refunded"
}

// MayanAuctionBid auction program bid; one row per signature.
type MayanAuctionBid struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Signature    string    `json:"signature" gorm:"size:100;uniqueIndex;not null"`
	OrderHash    string    `json:"order_hash" gorm:"size:66;not null;index"`
	AmountBid    string    `json:"amount_bid" gorm:"type:numeric(78,0)"`
	AuctionState string    `json:"auction_state" gorm:"size:66;index"`
	Driver       string    `json:"driver" gorm:"size:66"`
	Slot         uint64    `json:"slot"`
	Timestamp    time.Time `json:"timestamp" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MayanAuctionBid) TableName() string {
	return "mayan_auction_bids"
}

// MayanAuctionClose auction program close_auction; one row per auction account.
type MayanAuctionClose struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	AuctionState string    `json:"auction_state" gorm:"size:66;uniqueIndex;not null"`
	Initializer  string    `json:"initializer" gorm:"size:66"`
	Signature    string    `json:"signature" gorm:"size:100;not null"`
	Slot         uint64    `json:"slot"`
	Timestamp    time.Time `json:"timestamp"`
	CreatedAt    time.Time `json:"created_at"`
}

func (MayanAuctionClose) TableName() string {
	return "mayan_auction_closes"
}
