package models

import (
	"time"
)

// Transaction is the raw metadata of a transaction that touched a bridge contract or program.
// Written during extraction, read by the middle-info pass and the cctx generator.
type Transaction struct {
	ID              uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null;uniqueIndex:idx_transactions_chain_hash"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;not null;uniqueIndex:idx_transactions_chain_hash"` // EVM tx hash or Solana signature
	BlockNumber     uint64    `json:"block_number" gorm:"index"`                                                          // block number or slot
	Timestamp       time.Time `json:"timestamp" gorm:"index"`
	FromAddress     string    `json:"from_address" gorm:"size:66"`
	ToAddress       string    `json:"to_address" gorm:"size:66"`
	Value           string    `json:"value" gorm:"type:numeric(78,0);default:0"`
	Fee             string    `json:"fee" gorm:"type:numeric(78,0);default:0"`
	InputData       string    `json:"input_data" gorm:"type:text"`
	Status          bool      `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
