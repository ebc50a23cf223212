package model

import (
	"time"

	"github.com/google/uuid"
)

// TicketPurchase is one purchase batch. ticket_price is a snapshot of the
// price at purchase time; later price changes never alter historical totals.
type TicketPurchase struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	EventName   *string   `db:"event_name" json:"event_name,omitempty"`
	Count       int       `db:"count" json:"count"`
	TicketPrice int64     `db:"ticket_price" json:"ticket_price"`
	TotalPrice  int64     `db:"total_price" json:"total_price"`
	PurchaseAt  time.Time `db:"purchase_at" json:"purchase_at"`
}

type TicketPurchaseWithUser struct {
	TicketPurchase
	Username  string `db:"username" json:"username"`
	Nickname  string `db:"nickname" json:"nickname"`
	Firstname string `db:"firstname" json:"firstname"`
	Lastname  string `db:"lastname" json:"lastname"`
}
