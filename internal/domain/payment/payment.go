package payment

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrMissingTransactionID = errors.New("gateway transaction id is required")
)

// Payment is an append-mostly ledger entry referencing its order by id.
// TransactionID is the gateway's transaction number and the idempotency
// key: at most one row exists per transaction id.
type Payment struct {
	ID            string          `json:"paymentId"`
	OrderID       string          `json:"orderId"`
	Method        string          `json:"paymentMethod"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId"`
	Status        Status          `json:"status"`
	PaidAt        time.Time       `json:"paymentDate"`
}
