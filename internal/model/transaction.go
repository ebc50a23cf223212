package model

import (
	"time"

	"github.com/google/uuid"
)

type TransactionType string

const (
	TransactionGift            TransactionType = "GIFT"
	TransactionCodeRedemption  TransactionType = "CODE_REDEMPTION"
	TransactionAdminAdjustment TransactionType = "ADMIN_ADJUSTMENT"
	TransactionPayment         TransactionType = "PAYMENT"
	TransactionTicketPurchase  TransactionType = "TICKET_PURCHASE"
)

// Transaction is an append-only ledger row. coin_amount is always a positive
// magnitude; direction follows from the type and from which of the sender and
// recipient columns is set. Rows are never updated or deleted.
type Transaction struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	SenderUserID    *uuid.UUID      `db:"sender_user_id" json:"sender_user_id,omitempty"`
	RecipientUserID *uuid.UUID      `db:"recipient_user_id" json:"recipient_user_id,omitempty"`
	Type            TransactionType `db:"type" json:"type"`
	CoinAmount      int64           `db:"coin_amount" json:"coin_amount"`
	RelatedCodeID   *int64          `db:"related_code_id" json:"related_code_id,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

type CoinDirection string

const (
	DirectionIn  CoinDirection = "in"
	DirectionOut CoinDirection = "out"
)

type CoinHistoryEntry struct {
	TransactionID uuid.UUID       `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	Direction     CoinDirection   `json:"direction"`
	CoinAmount    int64           `json:"coin_amount"`
	CreatedAt     time.Time       `json:"created_at"`
}

type GiftHistoryEntry struct {
	TransactionID        uuid.UUID     `json:"transaction_id"`
	Direction            CoinDirection `json:"direction"`
	CounterpartUsername  string        `json:"counterpart_username"`
	CounterpartNickname  string        `json:"counterpart_nickname"`
	CoinAmount           int64         `json:"coin_amount"`
	CreatedAt            time.Time     `json:"created_at"`
}
