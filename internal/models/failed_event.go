package models

import (
	"time"
)

// FailedEvent records an event or instruction that could not be decoded.
// The batch continues without it; rows here are what a re-run needs to look at.
type FailedEvent struct {
	ID              string    `json:"id" gorm:"primaryKey"` // UUID
	RunID           string    `json:"run_id" gorm:"size:36;index"`
	Bridge          string    `json:"bridge" gorm:"size:16;not null;index"`
	Blockchain      string    `json:"blockchain" gorm:"size:32;not null"`
	EventName       string    `json:"event_name" gorm:"size:64"`
	Contract        string    `json:"contract" gorm:"size:66"`
	TransactionHash string    `json:"transaction_hash" gorm:"size:100;index"`
	BlockNumber     uint64    `json:"block_number"`
	LastError       string    `json:"last_error" gorm:"type:text"`
	RetryCount      int       `json:"retry_count" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (FailedEvent) TableName() string {
	return "failed_events"
}
