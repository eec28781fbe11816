package notification

import (
	"context"
	"encoding/json"
	"log"

	"github.com/example/bookstore-payments/internal/domain/order"
	"github.com/example/bookstore-payments/internal/domain/payment"
	"github.com/example/bookstore-payments/internal/email"
	"github.com/example/bookstore-payments/internal/event"
)

// Handler processes events for sending notifications
type Handler struct {
	emailService *email.Service
	orders       order.Store
}

// NewHandler creates a new notification handler
func NewHandler(emailSvc *email.Service, orders order.Store) *Handler {
	return &Handler{
		emailService: emailSvc,
		orders:       orders,
	}
}

// HandleEvent processes an event from Kafka
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var env event.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[Notifier] Failed to unmarshal event: %v", err)
		return err
	}

	switch env.Type {
	case event.TypePaymentRecorded:
		return h.handlePaymentRecorded(ctx, env)
	case event.TypeOrderCancelled:
		return h.handleOrderCancelled(ctx, env)
	}

	return nil
}

func (h *Handler) handlePaymentRecorded(ctx context.Context, env event.Envelope) error {
	var e payment.Recorded
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal PaymentRecorded event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing PaymentRecorded event for order %s, txn %s", e.OrderID, e.TransactionID)

	to, ok := h.customerEmail(ctx, e.OrderID)
	if !ok {
		return nil
	}

	if err := h.emailService.SendPaymentReceipt(to, e.OrderID, e.TransactionID, e.Amount); err != nil {
		log.Printf("[Notifier] Failed to send receipt to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Payment receipt sent to %s for order %s", to, e.OrderID)
	return nil
}

func (h *Handler) handleOrderCancelled(ctx context.Context, env event.Envelope) error {
	var e order.Cancelled
	if err := json.Unmarshal(env.Data, &e); err != nil {
		log.Printf("[Notifier] Failed to unmarshal OrderCancelled event: %v", err)
		return err
	}

	log.Printf("[Notifier] Processing OrderCancelled event for order %s", e.OrderID)

	to, ok := h.customerEmail(ctx, e.OrderID)
	if !ok {
		return nil
	}

	if err := h.emailService.SendOrderCancelled(to, e.OrderID, e.Reason); err != nil {
		log.Printf("[Notifier] Failed to send cancellation notice to %s: %v", to, err)
		return err
	}

	log.Printf("[Notifier] Cancellation notice sent to %s for order %s", to, e.OrderID)
	return nil
}

// customerEmail looks up the order's customer email. A missing order or
// empty address is logged and skipped, not retried.
func (h *Handler) customerEmail(ctx context.Context, orderID string) (string, bool) {
	o, found, err := h.orders.Get(ctx, orderID)
	if err != nil {
		log.Printf("[Notifier] Error getting order %s: %v", orderID, err)
		return "", false
	}
	if !found {
		log.Printf("[Notifier] Order not found: %s", orderID)
		return "", false
	}
	if o.CustomerEmail == "" {
		log.Printf("[Notifier] Order %s has no customer email, skipping", orderID)
		return "", false
	}
	return o.CustomerEmail, true
}
