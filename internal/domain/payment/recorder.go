package payment

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/bookstore-payments/internal/event"
)

// Store is the ledger persistence surface. Insert must enforce
// uniqueness of TransactionID atomically at the storage layer: callback
// handlers for the same transaction may run concurrently in separate
// processes, so an in-memory lock cannot serialize them.
type Store interface {
	// Insert persists p unless a payment with its transaction id
	// already exists. Returns false (and no error) in that case.
	Insert(ctx context.Context, p *Payment) (bool, error)
	Get(ctx context.Context, id string) (*Payment, bool, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*Payment, bool, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, bool, error)
	List(ctx context.Context) ([]*Payment, error)
}

// Publisher emits domain events to the event bus.
type Publisher interface {
	Publish(ctx context.Context, key string, evt any) error
}

// Recorder persists validated payment outcomes idempotently under the
// gateway transaction id.
type Recorder struct {
	store     Store
	publisher Publisher
}

func NewRecorder(store Store, publisher Publisher) *Recorder {
	return &Recorder{store: store, publisher: publisher}
}

// Record persists a completed payment for a validated, success-coded
// callback. Redelivery of the same transaction id returns the already
// persisted row and reports success; exactly one row ever exists per
// transaction.
func (r *Recorder) Record(ctx context.Context, orderID, transactionID, method string, amount decimal.Decimal) (*Payment, error) {
	if transactionID == "" {
		return nil, ErrMissingTransactionID
	}

	p := &Payment{
		ID:            uuid.New().String(),
		OrderID:       orderID,
		Method:        method,
		Amount:        amount,
		TransactionID: transactionID,
		Status:        StatusCompleted,
		PaidAt:        time.Now(),
	}

	created, err := r.store.Insert(ctx, p)
	if err != nil {
		return nil, err
	}
	if !created {
		existing, found, err := r.store.GetByTransactionID(ctx, transactionID)
		if err != nil {
			return nil, err
		}
		if !found {
			// Conflicting row vanished between insert and read; retry
			// the whole record so one of the two paths settles.
			return r.Record(ctx, orderID, transactionID, method, amount)
		}
		return existing, nil
	}

	r.publish(ctx, p)
	return p, nil
}

func (r *Recorder) Get(ctx context.Context, id string) (*Payment, error) {
	p, found, err := r.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (r *Recorder) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	p, found, err := r.store.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrPaymentNotFound
	}
	return p, nil
}

func (r *Recorder) List(ctx context.Context) ([]*Payment, error) {
	return r.store.List(ctx)
}

func (r *Recorder) publish(ctx context.Context, p *Payment) {
	if r.publisher == nil {
		return
	}
	env, err := event.New(event.TypePaymentRecorded, p.OrderID, Recorded{
		PaymentID:     p.ID,
		OrderID:       p.OrderID,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Method:        p.Method,
		PaidAt:        p.PaidAt,
	})
	if err != nil {
		log.Printf("[Payment] Failed to build PaymentRecorded event for order %s: %v", p.OrderID, err)
		return
	}
	if err := r.publisher.Publish(ctx, p.OrderID, env); err != nil {
		log.Printf("[Payment] Failed to publish PaymentRecorded event for order %s: %v", p.OrderID, err)
	}
}
