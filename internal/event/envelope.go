package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types published to the event bus.
const (
	TypeOrderCreated    = "OrderCreated"
	TypeOrderConfirmed  = "OrderConfirmed"
	TypeOrderShipped    = "OrderShipped"
	TypeOrderDelivered  = "OrderDelivered"
	TypeOrderCancelled  = "OrderCancelled"
	TypePaymentRecorded = "PaymentRecorded"
)

// Envelope is the wire form of a domain event. Consumers dispatch on
// Type and unmarshal Data into the matching payload struct.
type Envelope struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// New wraps payload into an envelope keyed by orderID.
func New(eventType, orderID string, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:         uuid.New().String(),
		Type:       eventType,
		OrderID:    orderID,
		Data:       data,
		OccurredAt: time.Now(),
	}, nil
}
