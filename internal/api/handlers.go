package api

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/example/bookstore-payments/internal/api/middleware"
	"github.com/example/bookstore-payments/internal/domain/order"
	"github.com/example/bookstore-payments/internal/domain/payment"
	"github.com/example/bookstore-payments/internal/vnpay"
)

type Handlers struct {
	orders   *order.Service
	payments *payment.Recorder
	gateway  *vnpay.Client
}

func NewHandlers(orders *order.Service, payments *payment.Recorder, gateway *vnpay.Client) *Handlers {
	return &Handlers{
		orders:   orders,
		payments: payments,
		gateway:  gateway,
	}
}

// Order Handlers

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		TotalAmount     decimal.Decimal `json:"totalAmount"`
		ShippingAddress string          `json:"shippingAddress"`
		CustomerEmail   string          `json:"customerEmail"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.Create(r.Context(), userID, req.TotalAmount, req.ShippingAddress, req.CustomerEmail)
	if err != nil {
		if errors.Is(err, order.ErrInvalidAmount) || errors.Is(err, order.ErrMissingAddress) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to create order")
		return
	}

	respondJSON(w, http.StatusCreated, o)
}

func (h *Handlers) GetOrders(w http.ResponseWriter, r *http.Request) {
	var (
		orders []*order.Order
		err    error
	)
	if middleware.IsAdmin(r.Context()) {
		orders, err = h.orders.List(r.Context())
	} else {
		orders, err = h.orders.ListByUser(r.Context(), middleware.GetUserID(r.Context()))
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []*order.Order{}
	}
	respondJSON(w, http.StatusOK, orders)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	id := extractPathParam(r.URL.Path, "/orders/")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	// Users may only access their own orders; admins can access all.
	if o.UserID != middleware.GetUserID(r.Context()) && !middleware.IsAdmin(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	respondJSON(w, http.StatusOK, o)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/cancel")

	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, order.ErrOrderNotFound) {
			respondError(w, http.StatusNotFound, "order not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load order")
		return
	}
	if o.UserID != middleware.GetUserID(r.Context()) && !middleware.IsAdmin(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	cancelled, err := h.orders.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		respondOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, cancelled)
}

// UpdateOrderStatus advances an order along the fulfilment path.
// Admin only; cancellation has its own endpoint.
func (h *Handlers) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	if !middleware.IsAdmin(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	id := strings.TrimSuffix(extractPathParam(r.URL.Path, "/orders/"), "/status")

	var req struct {
		Status order.Status `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		respondOrderError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, o)
}

// respondOrderError maps order domain errors onto HTTP statuses.
// Invalid transitions are conflicts: the order exists but refuses the
// move, and its state is left untouched.
func respondOrderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, order.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, order.ErrOrderDelivered),
		errors.Is(err, order.ErrOrderCancelled),
		errors.Is(err, order.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "failed to update order")
	}
}

// Helpers

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]any{"success": false, "error": message})
}

func extractPathParam(path, prefix string) string {
	return strings.TrimPrefix(path, prefix)
}

// clientIP picks the originating address for vnp_IpAddr: the first
// X-Forwarded-For hop when running behind a proxy, otherwise the peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
