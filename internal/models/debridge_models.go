package models

import (
	"time"
)

// DeBridgeCreatedOrder DlnSource CreatedOrder (EVM) / create_order_with_nonce (Solana)
type DeBridgeCreatedOrder struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID         string    `json:"order_id" gorm:"size:66;uniqueIndex;not null"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`

	MakerOrderNonce string `json:"maker_order_nonce" gorm:"type:numeric(78,0)"`
	MakerSrc        string `json:"maker_src" gorm:"size:66"`

	GiveChain        string `json:"give_chain" gorm:"size:32;not null"`
	GiveTokenAddress string `json:"give_token_address" gorm:"size:66"`
	GiveAmount       string `json:"give_amount" gorm:"type:numeric(78,0)"`
	TakeChain        string `json:"take_chain" gorm:"size:32;not null"`
	TakeTokenAddress string `json:"take_token_address" gorm:"size:66"`
	TakeAmount       string `json:"take_amount" gorm:"type:numeric(78,0)"`

	ReceiverDst                 string  `json:"receiver_dst" gorm:"size:66"`
	GivePatchAuthoritySrc       string  `json:"give_patch_authority_src" gorm:"size:66"`
	OrderAuthorityAddressDst    string  `json:"order_authority_address_dst" gorm:"size:66"`
	AllowedTakerDst             *string `json:"allowed_taker_dst" gorm:"size:66"`
	AllowedCancelBeneficiarySrc *string `json:"allowed_cancel_beneficiary_src" gorm:"size:66"`
	ExternalCall                *string `json:"external_call" gorm:"type:text"`

	AffiliateFee *string `json:"affiliate_fee" gorm:"type:text"`
	NativeFixFee *string `json:"native_fix_fee" gorm:"type:numeric(78,0)"`
	PercentFee   *string `json:"percent_fee" gorm:"type:numeric(78,0)"`
	ReferralCode *uint32 `json:"referral_code"`
	Metadata     *string `json:"metadata" gorm:"type:text"`

	GiveOrderState *string `json:"give_order_state" gorm:"size:66;index"` // Solana only

	// set only when the give side went through a swap in the same transaction;
	// the give fields then hold what the user started with
	MiddleTokenAddress *string `json:"middle_token_address" gorm:"size:66"`
	MiddleAmount       *string `json:"middle_amount" gorm:"type:numeric(78,0)"`

	CreatedAt time.Time `json:"created_at"`
}

func (DeBridgeCreatedOrder) TableName() string {
	return "debridge_created_orders"
}

// DeBridgeFulfilledOrder DlnDestination FulfilledOrder (EVM) / fulfill_order (Solana)
type DeBridgeFulfilledOrder struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID         string    `json:"order_id" gorm:"size:66;uniqueIndex;not null"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber     uint64    `json:"block_number"`
	Timestamp       time.Time `json:"timestamp" gorm:"index"`

	MakerOrderNonce string `json:"maker_order_nonce" gorm:"type:numeric(78,0)"`
	MakerSrc        string `json:"maker_src" gorm:"size:66"`

	GiveChain        string `json:"give_chain" gorm:"size:32;not null"`
	GiveTokenAddress string `json:"give_token_address" gorm:"size:66"`
	GiveAmount       string `json:"give_amount" gorm:"type:numeric(78,0)"`
	TakeChain        string `json:"take_chain" gorm:"size:32;not null"`
	TakeTokenAddress string `json:"take_token_address" gorm:"size:66"`
	TakeAmount       string `json:"take_amount" gorm:"type:numeric(78,0)"`

	ReceiverDst     string `json:"receiver_dst" gorm:"size:66"`
	Taker           string `json:"taker" gorm:"size:66"`
	UnlockAuthority string `json:"unlock_authority" gorm:"size:66"`

	// token the taker spent before swapping into the take token
	MiddleTokenAddress *string `json:"middle_token_address" gorm:"size:66"`
	MiddleAmount       *string `json:"middle_amount" gorm:"type:numeric(78,0)"`

	CreatedAt time.Time `json:"created_at"`
}

func (DeBridgeFulfilledOrder) TableName() string {
	return "debridge_fulfilled_orders"
}

// DeBridgeClaimedUnlock DlnSource ClaimedUnlock (EVM) / claim_unlock (Solana)
type DeBridgeClaimedUnlock struct {
	ID               uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID          string    `json:"order_id" gorm:"size:66;uniqueIndex;not null"`
	Blockchain       string    `json:"blockchain" gorm:"size:32;not null;index"`
	TransactionHash  string    `json:"transaction_hash" gorm:"size:100;not null;index"`
	BlockNumber      uint64    `json:"block_number"`
	Timestamp        time.Time `json:"timestamp" gorm:"index"`
	Beneficiary      string    `json:"beneficiary" gorm:"size:66"`
	GiveAmount       string    `json:"give_amount" gorm:"type:numeric(78,0)"`
	GiveTokenAddress string    `json:"give_token_address" gorm:"size:66"`
	Fee              *string   `json:"fee" gorm:"type:numeric(78,0)"` // Solana only, filled by the post pass
	CreatedAt        time.Time `json:"created_at"`
}

func (DeBridgeClaimedUnlock) TableName() string {
	return "debridge_claimed_unlocks"
}
