package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TransactionPurchase     = "purchase"
	TransactionConfigBuy    = "config_buy"
	TransactionConfigSale   = "config_sale"
	TransactionSubscription = "subscription"
	TransactionWithdrawal   = "withdrawal"
)

// Transaction is an append-only ledger row. Amount is signed, negative is a debit.
type Transaction struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	UserID      string    `gorm:"size:36;not null;index" json:"user_id"`
	Type        string    `gorm:"size:20;not null;index" json:"type"`
	Amount      int64     `gorm:"not null" json:"amount"`
	Description string    `gorm:"size:255" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}
