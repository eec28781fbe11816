package order

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/bookstore-payments/internal/event"
)

// Store is the persistence surface the service needs. Implemented by
// the PostgreSQL store and the test mocks.
type Store interface {
	Insert(ctx context.Context, o *Order) error
	Get(ctx context.Context, id string) (*Order, bool, error)
	ListByUser(ctx context.Context, userID string) ([]*Order, error)
	List(ctx context.Context) ([]*Order, error)
	// UpdateStatus persists o's status, cancellation reason, and
	// updated-at timestamp, guarded on the status the caller read.
	// Returns false when another writer moved the order first.
	UpdateStatus(ctx context.Context, o *Order, from Status) (bool, error)
}

// Publisher emits domain events to the event bus. Satisfied by
// kafka.Producer; nil-able for callers that do not publish.
type Publisher interface {
	Publish(ctx context.Context, key string, evt any) error
}

// Service applies order state changes through the status state machine.
type Service struct {
	store     Store
	publisher Publisher
}

func NewService(store Store, publisher Publisher) *Service {
	return &Service{store: store, publisher: publisher}
}

// Create opens a new order in pending status.
func (s *Service) Create(ctx context.Context, userID string, total decimal.Decimal, shippingAddress, customerEmail string) (*Order, error) {
	if total.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if shippingAddress == "" {
		return nil, ErrMissingAddress
	}

	now := time.Now()
	o := &Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Status:          StatusPending,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		CustomerEmail:   customerEmail,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Insert(ctx, o); err != nil {
		return nil, err
	}

	s.publish(ctx, event.TypeOrderCreated, o.ID, Created{
		OrderID:     o.ID,
		UserID:      userID,
		TotalAmount: total,
		CreatedAt:   now,
	})
	return o, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	o, found, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrOrderNotFound
	}
	return o, nil
}

func (s *Service) ListByUser(ctx context.Context, userID string) ([]*Order, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]*Order, error) {
	return s.store.List(ctx)
}

// ConfirmPayment moves a pending order to confirmed after a validated
// successful payment. Re-applying to an order that already advanced past
// pending is a no-op, not an error: the gateway may redeliver callbacks.
func (s *Service) ConfirmPayment(ctx context.Context, orderID, transactionID string) (*Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch o.Status {
	case StatusConfirmed, StatusShipped, StatusDelivered:
		return o, nil // payment already applied
	}
	if !o.CanTransitionTo(StatusConfirmed) {
		return nil, o.transitionError(StatusConfirmed)
	}

	from := o.Status
	o.Status = StatusConfirmed
	o.UpdatedAt = time.Now()
	applied, err := s.store.UpdateStatus(ctx, o, from)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Lost the race to a concurrent handler; re-read and let the
		// idempotency check above settle it.
		return s.ConfirmPayment(ctx, orderID, transactionID)
	}

	s.publish(ctx, event.TypeOrderConfirmed, o.ID, Confirmed{
		OrderID:       o.ID,
		TransactionID: transactionID,
		ConfirmedAt:   o.UpdatedAt,
	})
	return o, nil
}

// UpdateStatus advances an order along the forward path
// (confirmed -> shipped -> delivered). Cancellation goes through Cancel.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, target Status) (*Order, error) {
	if !ValidStatus(target) || target == StatusCancelled {
		return nil, ErrInvalidTransition
	}

	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(target) {
		return nil, o.transitionError(target)
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = time.Now()
	applied, err := s.store.UpdateStatus(ctx, o, from)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, ErrInvalidTransition
	}

	eventType := event.TypeOrderShipped
	if target == StatusDelivered {
		eventType = event.TypeOrderDelivered
	}
	s.publish(ctx, eventType, o.ID, StatusChanged{
		OrderID:   o.ID,
		From:      from,
		To:        target,
		ChangedAt: o.UpdatedAt,
	})
	return o, nil
}

// Cancel moves an order to cancelled. Allowed from every state except
// delivered and cancelled; the total amount is never touched.
func (s *Service) Cancel(ctx context.Context, orderID, reason string) (*Order, error) {
	o, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.CanTransitionTo(StatusCancelled) {
		return nil, o.transitionError(StatusCancelled)
	}

	from := o.Status
	o.Status = StatusCancelled
	o.CancellationReason = reason
	o.UpdatedAt = time.Now()
	applied, err := s.store.UpdateStatus(ctx, o, from)
	if err != nil {
		return nil, err
	}
	if !applied {
		// The order moved under us; re-read for an accurate error.
		return s.Cancel(ctx, orderID, reason)
	}

	s.publish(ctx, event.TypeOrderCancelled, o.ID, Cancelled{
		OrderID:     o.ID,
		Reason:      reason,
		CancelledAt: o.UpdatedAt,
	})
	return o, nil
}

// publish emits an event envelope. Events feed notifications only, so a
// publish failure is logged rather than propagated.
func (s *Service) publish(ctx context.Context, eventType, orderID string, payload any) {
	if s.publisher == nil {
		return
	}
	env, err := event.New(eventType, orderID, payload)
	if err != nil {
		log.Printf("[Order] Failed to build %s event for order %s: %v", eventType, orderID, err)
		return
	}
	if err := s.publisher.Publish(ctx, orderID, env); err != nil {
		log.Printf("[Order] Failed to publish %s event for order %s: %v", eventType, orderID, err)
	}
}
