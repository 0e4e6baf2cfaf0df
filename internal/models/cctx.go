package models

import (
	"time"
)

// Bridge identifies which protocol a cctx table belongs to.
type Bridge string

const (
	BridgeDeBridge Bridge = "debridge"
	BridgeMayan    Bridge = "mayan"
)

// CctxTable is the per-bridge cross-chain transaction table.
func (b Bridge) CctxTable() string {
	return string(b) + "_cctxs"
}

// CrossChainTransaction one row per intent, rebuilt from scratch on every generation run.
// USD columns are left null here and filled by the valuation pass.
type CrossChainTransaction struct {
	IntentID string `json:"intent_id" gorm:"primaryKey;size:66"`

	SrcBlockchain      string    `json:"src_blockchain" gorm:"size:32;not null;index"`
	SrcTransactionHash string    `json:"src_transaction_hash" gorm:"size:100;not null"`
	SrcFromAddress     string    `json:"src_from_address" gorm:"size:66"`
	SrcToAddress       string    `json:"src_to_address" gorm:"size:66"`
	SrcFee             string    `json:"src_fee" gorm:"type:numeric(78,0)"`
	SrcFeeUSD          *float64  `json:"src_fee_usd"`
	SrcValue           string    `json:"src_value" gorm:"type:numeric(78,0)"`
	SrcValueUSD        *float64  `json:"src_value_usd"`
	SrcTimestamp       time.Time `json:"src_timestamp" gorm:"index"`

	DstBlockchain      string    `json:"dst_blockchain" gorm:"size:32;not null;index"`
	DstTransactionHash string    `json:"dst_transaction_hash" gorm:"size:100;not null"`
	DstFromAddress     string    `json:"dst_from_address" gorm:"size:66"`
	DstToAddress       string    `json:"dst_to_address" gorm:"size:66"`
	DstFee             string    `json:"dst_fee" gorm:"type:numeric(78,0)"`
	DstFeeUSD          *float64  `json:"dst_fee_usd"`
	DstValue           string    `json:"dst_value" gorm:"type:numeric(78,0)"`
	DstValueUSD        *float64  `json:"dst_value_usd"`
	DstTimestamp       time.Time `json:"dst_timestamp"`

	RefundBlockchain      *string    `json:"refund_blockchain" gorm:"size:32"`
	RefundTransactionHash *string    `json:"refund_transaction_hash" gorm:"size:100"`
	RefundFromAddress     *string    `json:"refund_from_address" gorm:"size:66"`
	RefundToAddress       *string    `json:"refund_to_address" gorm:"size:66"`
	RefundFee             *string    `json:"refund_fee" gorm:"type:numeric(78,0)"`
	RefundFeeUSD          *float64   `json:"refund_fee_usd"`
	RefundValue           *string    `json:"refund_value" gorm:"type:numeric(78,0)"`
	RefundValueUSD        *float64   `json:"refund_value_usd"`
	RefundTimestamp       *time.Time `json:"refund_timestamp"`

	Depositor          string `json:"depositor" gorm:"size:66"`
	Recipient          string `json:"recipient" gorm:"size:66"`
	SrcContractAddress string `json:"src_contract_address" gorm:"size:66"` // input token
	DstContractAddress string `json:"dst_contract_address" gorm:"size:66"` // output token

	InputAmount     string   `json:"input_amount" gorm:"type:numeric(78,0)"`
	InputAmountUSD  *float64 `json:"input_amount_usd"`
	OutputAmount    string   `json:"output_amount" gorm:"type:numeric(78,0)"`
	OutputAmountUSD *float64 `json:"output_amount_usd"`

	SrcMiddleToken     *string  `json:"src_middle_token" gorm:"size:66"`
	SrcMiddleAmount    *string  `json:"src_middle_amount" gorm:"type:numeric(78,0)"`
	SrcMiddleAmountUSD *float64 `json:"src_middle_amount_usd"`
	DstMiddleToken     *string  `json:"dst_middle_token" gorm:"size:66"`
	DstMiddleAmount    *string  `json:"dst_middle_amount" gorm:"type:numeric(78,0)"`
	DstMiddleAmountUSD *float64 `json:"dst_middle_amount_usd"`

	RefundToken     *string  `json:"refund_token" gorm:"size:66"`
	RefundAmount    *string  `json:"refund_amount" gorm:"type:numeric(78,0)"`
	RefundAmountUSD *float64 `json:"refund_amount_usd"`

	NativeFixFee    *string  `json:"native_fix_fee" gorm:"type:numeric(78,0)"`
	NativeFixFeeUSD *float64 `json:"native_fix_fee_usd"`
	PercentFee      *string  `json:"percent_fee" gorm:"type:numeric(78,0)"`
	PercentFeeUSD   *float64 `json:"percent_fee_usd"`

	// Mayan only
	AuctionID         *string    `json:"auction_id" gorm:"size:66"`
	FirstBidTimestamp *time.Time `json:"first_bid_timestamp"`
	LastBidTimestamp  *time.Time `json:"last_bid_timestamp"`
	BidCount          *int       `json:"bid_count"`
}
