package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/bookstore-payments/internal/api/middleware"
	"github.com/example/bookstore-payments/internal/auth"
	"github.com/example/bookstore-payments/internal/domain/order"
	"github.com/example/bookstore-payments/internal/domain/payment"
	"github.com/example/bookstore-payments/internal/infrastructure/store/mocks"
	"github.com/example/bookstore-payments/internal/vnpay"
)

const testHashSecret = "testsecret"

type testEnv struct {
	handlers   *Handlers
	orders     *mocks.MockOrderStore
	payments   *mocks.MockPaymentStore
	orderSvc   *order.Service
	paymentSvc *payment.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gateway, err := vnpay.NewClient(vnpay.Config{
		TmnCode:    "TESTCODE",
		HashSecret: testHashSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
	})
	require.NoError(t, err)

	orders := mocks.NewMockOrderStore()
	payments := mocks.NewMockPaymentStore()
	orderSvc := order.NewService(orders, nil)
	paymentSvc := payment.NewRecorder(payments, nil)

	return &testEnv{
		handlers:   NewHandlers(orderSvc, paymentSvc, gateway),
		orders:     orders,
		payments:   payments,
		orderSvc:   orderSvc,
		paymentSvc: paymentSvc,
	}
}

func (e *testEnv) seedOrder(id, userID string, amount int64) {
	now := time.Now()
	e.orders.Seed(&order.Order{
		ID:              id,
		UserID:          userID,
		Status:          order.StatusPending,
		TotalAmount:     decimal.NewFromInt(amount),
		ShippingAddress: "123 Test St",
		CustomerEmail:   "customer@example.com",
		CreatedAt:       now,
		UpdatedAt:       now,
	})
}

func contextWithUser(userID, role string) context.Context {
	return context.WithValue(context.Background(), middleware.UserContextKey, &auth.Claims{
		UserID: userID,
		Email:  userID + "@example.com",
		Role:   role,
	})
}

// buildPaymentURL drives the create-url handler and returns the signed
// redirect URL from its response.
func buildPaymentURL(t *testing.T, env *testEnv, orderID, amount string) string {
	t.Helper()

	target := "/payments/create-url?orderId=" + orderID +
		"&amount=" + amount +
		"&orderInfo=" + url.QueryEscape("Thanh toan don hang "+orderID) +
		"&returnUrl=" + url.QueryEscape("https://shop.example.com/payment/return")
	req := httptest.NewRequest(http.MethodPost, target, nil)
	req = req.WithContext(contextWithUser("user-1", "user"))
	req.RemoteAddr = "203.0.113.7:44321"
	rec := httptest.NewRecorder()

	env.handlers.CreatePaymentURL(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success    bool   `json:"success"`
		PaymentURL string `json:"paymentUrl"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.PaymentURL)
	return resp.PaymentURL
}

// gatewayCallbackQuery simulates the gateway: it takes the parameters of
// a redirect URL, adds the outcome fields, and re-signs the whole set
// with the shared secret.
func gatewayCallbackQuery(t *testing.T, paymentURL, responseCode, transactionNo string) string {
	t.Helper()

	parsed, err := url.Parse(paymentURL)
	require.NoError(t, err)

	params := make(map[string]string)
	for key, values := range parsed.Query() {
		if key == vnpay.FieldSecureHash {
			continue
		}
		params[key] = values[0]
	}
	params[vnpay.FieldResponseCode] = responseCode
	params[vnpay.FieldTransactionNo] = transactionNo
	params["vnp_BankCode"] = "NCB"
	params["vnp_PayDate"] = time.Now().Format("20060102150405")

	query := vnpay.EncodeParams(params)
	return query + "&" + vnpay.FieldSecureHash + "=" + vnpay.Sign(query, testHashSecret)
}

func postCallback(t *testing.T, env *testEnv, query string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/payments/callback?"+query, nil)
	rec := httptest.NewRecorder()
	env.handlers.PaymentCallback(rec, req)
	return rec
}

func TestPaymentFlowSuccess(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	paymentURL := buildPaymentURL(t, env, "1001", "50000")
	assert.Contains(t, paymentURL, "vnp_TxnRef=1001")
	assert.Contains(t, paymentURL, "vnp_Amount=5000000")

	rec := postCallback(t, env, gatewayCallbackQuery(t, paymentURL, "00", "14226112"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success       bool   `json:"success"`
		OrderID       string `json:"orderId"`
		TransactionID string `json:"transactionId"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "1001", resp.OrderID)
	assert.Equal(t, "14226112", resp.TransactionID)

	o, err := env.orderSvc.Get(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, o.Status)

	p, err := env.paymentSvc.GetByOrderID(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, "14226112", p.TransactionID)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(50000)))
	assert.Equal(t, 1, env.payments.Count())
}

func TestPaymentFlowDeclined(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	paymentURL := buildPaymentURL(t, env, "1001", "50000")

	rec := postCallback(t, env, gatewayCallbackQuery(t, paymentURL, "24", "14226112"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "24")

	// A declined callback changes nothing.
	o, err := env.orderSvc.Get(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, 0, env.payments.Count())
}

func TestPaymentCallbackRedelivery(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	query := gatewayCallbackQuery(t, buildPaymentURL(t, env, "1001", "50000"), "00", "14226112")

	first := postCallback(t, env, query)
	require.Equal(t, http.StatusOK, first.Code)

	// The gateway retries the identical callback. Both report success,
	// the ledger still holds a single row.
	second := postCallback(t, env, query)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, 1, env.payments.Count())

	o, err := env.orderSvc.Get(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, o.Status)
}

func TestPaymentCallbackTamperedSignature(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	query := gatewayCallbackQuery(t, buildPaymentURL(t, env, "1001", "50000"), "00", "14226112")
	tampered := strings.Replace(query, "vnp_Amount=5000000", "vnp_Amount=100", 1)

	rec := postCallback(t, env, tampered)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "payment verification failed")

	o, err := env.orderSvc.Get(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.Equal(t, 0, env.payments.Count())
}

func TestCreatePaymentURLValidation(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	tests := []struct {
		name     string
		query    string
		wantCode int
	}{
		{"missing order id", "amount=50000&returnUrl=https://shop.example.com/return", http.StatusBadRequest},
		{"missing amount", "orderId=1001&returnUrl=https://shop.example.com/return", http.StatusBadRequest},
		{"malformed amount", "orderId=1001&amount=abc&returnUrl=https://shop.example.com/return", http.StatusBadRequest},
		{"zero amount", "orderId=1001&amount=0&returnUrl=https://shop.example.com/return", http.StatusBadRequest},
		{"unknown order", "orderId=9999&amount=50000&returnUrl=https://shop.example.com/return", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/payments/create-url?"+tt.query, nil)
			req = req.WithContext(contextWithUser("user-1", "user"))
			rec := httptest.NewRecorder()
			env.handlers.CreatePaymentURL(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestCreateOrderHandler(t *testing.T) {
	env := newTestEnv(t)

	body := strings.NewReader(`{"totalAmount":"75000","shippingAddress":"456 Sample Rd","customerEmail":"buyer@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/orders", body)
	req = req.WithContext(contextWithUser("user-1", "user"))
	rec := httptest.NewRecorder()

	env.handlers.CreateOrder(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var o order.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
	assert.Equal(t, "user-1", o.UserID)
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestGetOrderOwnership(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	tests := []struct {
		name     string
		userID   string
		role     string
		wantCode int
	}{
		{"owner", "user-1", "user", http.StatusOK},
		{"other user", "user-2", "user", http.StatusForbidden},
		{"admin", "admin-1", "admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders/1001", nil)
			req = req.WithContext(contextWithUser(tt.userID, tt.role))
			rec := httptest.NewRecorder()
			env.handlers.GetOrder(rec, req)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestUpdateOrderStatusAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	env.seedOrder("1001", "user-1", 50000)

	req := httptest.NewRequest(http.MethodPut, "/orders/1001/status", strings.NewReader(`{"status":"confirmed"}`))
	req = req.WithContext(contextWithUser("user-1", "user"))
	rec := httptest.NewRecorder()
	env.handlers.UpdateOrderStatus(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCancelOrderConflict(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	env.orders.Seed(&order.Order{
		ID:              "1001",
		UserID:          "user-1",
		Status:          order.StatusDelivered,
		TotalAmount:     decimal.NewFromInt(50000),
		ShippingAddress: "123 Test St",
		CreatedAt:       now,
		UpdatedAt:       now,
	})

	req := httptest.NewRequest(http.MethodPost, "/orders/1001/cancel", strings.NewReader(`{"reason":"too late"}`))
	req = req.WithContext(contextWithUser("user-1", "user"))
	rec := httptest.NewRecorder()
	env.handlers.CancelOrder(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
