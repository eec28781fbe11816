package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrInvalidAmount     = errors.New("order total must be positive")
	ErrMissingAddress    = errors.New("shipping address is required")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderDelivered    = errors.New("cannot cancel delivered order")
	ErrOrderCancelled    = errors.New("order is already cancelled")
)

// validTransitions defines allowed state transitions. Status moves
// forward monotonically; cancellation is the single escape, closed off
// once the order is delivered.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// ValidStatus reports whether s is one of the known order statuses.
func ValidStatus(s Status) bool {
	_, ok := validTransitions[s]
	return ok
}

type Order struct {
	ID                 string          `json:"orderId"`
	UserID             string          `json:"userId"`
	Status             Status          `json:"status"`
	TotalAmount        decimal.Decimal `json:"totalAmount"`
	ShippingAddress    string          `json:"shippingAddress"`
	CustomerEmail      string          `json:"customerEmail,omitempty"`
	CancellationReason string          `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// CanTransitionTo checks if the order can transition to the target status
func (o *Order) CanTransitionTo(target Status) bool {
	allowed, exists := validTransitions[o.Status]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == target {
			return true
		}
	}
	return false
}

// transitionError returns an appropriate error for an invalid transition
func (o *Order) transitionError(target Status) error {
	switch {
	case o.Status == StatusCancelled:
		return ErrOrderCancelled
	case o.Status == StatusDelivered && target == StatusCancelled:
		return ErrOrderDelivered
	default:
		return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, o.Status, target)
	}
}
