package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/example/bookstore-payments/internal/domain/order"
	"github.com/example/bookstore-payments/internal/domain/payment"
	"github.com/example/bookstore-payments/internal/vnpay"
)

const paymentMethodVNPay = "VNPay"

// CreatePaymentURL builds the signed redirect URL the customer is sent
// to. Inputs arrive as query parameters, matching the checkout flow.
func (h *Handlers) CreatePaymentURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	orderID := q.Get("orderId")
	rawAmount := q.Get("amount")
	orderInfo := q.Get("orderInfo")
	returnURL := q.Get("returnUrl")

	if orderID == "" || rawAmount == "" || returnURL == "" {
		respondError(w, http.StatusBadRequest, "orderId, amount and returnUrl are required")
		return
	}

	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		respondError(w, http.StatusBadRequest, vnpay.ErrInvalidAmount.Error())
		return
	}

	// The transaction reference must belong to a real order, or the
	// eventual callback has nothing to reconcile against.
	if _, err := h.orders.Get(r.Context(), orderID); err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	paymentURL, err := h.gateway.BuildPaymentURL(vnpay.PaymentRequest{
		OrderID:   orderID,
		Amount:    amount,
		OrderInfo: orderInfo,
		ReturnURL: returnURL,
		ClientIP:  clientIP(r),
	})
	if err != nil {
		if errors.Is(err, vnpay.ErrInvalidAmount) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[API] Failed to build payment URL for order %s: %v", orderID, err)
		respondError(w, http.StatusInternalServerError, "failed to create payment url")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"paymentUrl": paymentURL,
	})
}

// PaymentCallback receives the gateway's asynchronous result. The
// request is untrusted until its signature verifies; only then is the
// outcome applied, and applying it twice is safe.
func (h *Handlers) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string, len(r.URL.Query()))
	for key, values := range r.URL.Query() {
		if len(values) > 0 {
			params[key] = values[0]
		}
	}

	result, err := h.gateway.ValidateCallback(params)
	if err != nil {
		log.Printf("[API] Rejected gateway callback with invalid signature (txn %q)", params[vnpay.FieldTransactionNo])
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "payment verification failed",
		})
		return
	}

	if !result.Success {
		log.Printf("[API] Gateway declined payment for order %s: code %s", result.OrderID, result.ResponseCode)
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"message": "payment failed - response code: " + result.ResponseCode,
		})
		return
	}

	p, err := h.payments.Record(r.Context(), result.OrderID, result.TransactionID, paymentMethodVNPay, result.Amount)
	if err != nil {
		log.Printf("[API] Failed to record payment for order %s: %v", result.OrderID, err)
		respondError(w, http.StatusInternalServerError, "failed to record payment")
		return
	}

	if _, err := h.orders.ConfirmPayment(r.Context(), result.OrderID, result.TransactionID); err != nil {
		// The payment row is persisted; a retry of the same callback
		// will skip straight to this confirmation.
		log.Printf("[API] Failed to confirm order %s after payment %s: %v", result.OrderID, p.ID, err)
		respondError(w, http.StatusInternalServerError, "failed to update order")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "payment completed",
		"orderId":       result.OrderID,
		"transactionId": result.TransactionID,
	})
}

// Payment queries

func (h *Handlers) GetPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	if payments == nil {
		payments = []*payment.Payment{}
	}
	respondJSON(w, http.StatusOK, payments)
}

func (h *Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/payments/")

	p, err := h.payments.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load payment")
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (h *Handlers) GetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := extractPathParam(r.URL.Path, "/payments/order/")

	p, err := h.payments.GetByOrderID(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, payment.ErrPaymentNotFound) {
			respondError(w, http.StatusNotFound, "payment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load payment")
		return
	}
	respondJSON(w, http.StatusOK, p)
}
