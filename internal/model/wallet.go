package model

import (
	"time"

	"github.com/google/uuid"
)

// Wallet is the per-user currency account. coin_balance is spendable and may
// never go below zero; cumulative_coin counts lifetime earnings and is only
// ever incremented (leaderboard ranking reads it).
type Wallet struct {
	UserID             uuid.UUID `db:"user_id" json:"user_id"`
	CoinBalance        int64     `db:"coin_balance" json:"coin_balance"`
	CumulativeCoin     int64     `db:"cumulative_coin" json:"cumulative_coin"`
	GiftSendsRemaining int       `db:"gift_sends_remaining" json:"gift_sends_remaining"`
	LastGiftReset      time.Time `db:"last_gift_reset" json:"last_gift_reset"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}
