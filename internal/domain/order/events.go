package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event payloads carried inside event.Envelope, keyed by order id.

type Created struct {
	OrderID     string          `json:"order_id"`
	UserID      string          `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	CreatedAt   time.Time       `json:"created_at"`
}

type Confirmed struct {
	OrderID       string    `json:"order_id"`
	TransactionID string    `json:"transaction_id"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

type StatusChanged struct {
	OrderID   string    `json:"order_id"`
	From      Status    `json:"from"`
	To        Status    `json:"to"`
	ChangedAt time.Time `json:"changed_at"`
}

type Cancelled struct {
	OrderID     string    `json:"order_id"`
	Reason      string    `json:"reason"`
	CancelledAt time.Time `json:"cancelled_at"`
}
