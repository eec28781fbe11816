package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/example/bookstore-payments/internal/domain/order"
)

// MockOrderStore is an in-memory implementation of order.Store for testing
type MockOrderStore struct {
	mu     sync.RWMutex
	orders map[string]order.Order

	// For tracking calls in tests
	InsertCalls       []string
	UpdateStatusCalls []UpdateStatusCall

	// When set, the corresponding method returns this error
	InsertErr error
	GetErr    error
	UpdateErr error
}

// UpdateStatusCall records parameters passed to UpdateStatus
type UpdateStatusCall struct {
	OrderID string
	From    order.Status
	To      order.Status
}

// NewMockOrderStore creates a new MockOrderStore
func NewMockOrderStore() *MockOrderStore {
	return &MockOrderStore{
		orders: make(map[string]order.Order),
	}
}

// Seed inserts an order directly, bypassing call tracking
func (m *MockOrderStore) Seed(o *order.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = *o
}

func (m *MockOrderStore) Insert(ctx context.Context, o *order.Order) error {
	if m.InsertErr != nil {
		return m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InsertCalls = append(m.InsertCalls, o.ID)
	m.orders[o.ID] = *o
	return nil
}

func (m *MockOrderStore) Get(ctx context.Context, id string) (*order.Order, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, false, nil
	}
	copied := o
	return &copied, true, nil
}

func (m *MockOrderStore) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*order.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			copied := o
			out = append(out, &copied)
		}
	}
	sortOrders(out)
	return out, nil
}

func (m *MockOrderStore) List(ctx context.Context) ([]*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*order.Order, 0, len(m.orders))
	for _, o := range m.orders {
		copied := o
		out = append(out, &copied)
	}
	sortOrders(out)
	return out, nil
}

// UpdateStatus emulates the guarded UPDATE of the PostgreSQL store:
// the write applies only if the stored status still matches from.
func (m *MockOrderStore) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) (bool, error) {
	if m.UpdateErr != nil {
		return false, m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateStatusCalls = append(m.UpdateStatusCalls, UpdateStatusCall{
		OrderID: o.ID,
		From:    from,
		To:      o.Status,
	})

	current, ok := m.orders[o.ID]
	if !ok || current.Status != from {
		return false, nil
	}
	current.Status = o.Status
	current.CancellationReason = o.CancellationReason
	current.UpdatedAt = o.UpdatedAt
	m.orders[o.ID] = current
	return true, nil
}

func sortOrders(orders []*order.Order) {
	sort.Slice(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
