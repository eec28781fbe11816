package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Recorded is the payload of a PaymentRecorded envelope.
type Recorded struct {
	PaymentID     string          `json:"payment_id"`
	OrderID       string          `json:"order_id"`
	TransactionID string          `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	PaidAt        time.Time       `json:"paid_at"`
}
