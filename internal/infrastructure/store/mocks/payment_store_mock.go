package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/example/bookstore-payments/internal/domain/payment"
)

// MockPaymentStore is an in-memory implementation of payment.Store for
// testing. It emulates the storage-layer uniqueness constraint on
// transaction id that backs idempotent recording.
type MockPaymentStore struct {
	mu          sync.Mutex
	byTxnID     map[string]payment.Payment
	InsertCalls []InsertCall

	InsertErr error
	GetErr    error
}

// InsertCall records parameters passed to Insert
type InsertCall struct {
	TransactionID string
	Created       bool
}

// NewMockPaymentStore creates a new MockPaymentStore
func NewMockPaymentStore() *MockPaymentStore {
	return &MockPaymentStore{
		byTxnID: make(map[string]payment.Payment),
	}
}

func (m *MockPaymentStore) Insert(ctx context.Context, p *payment.Payment) (bool, error) {
	if m.InsertErr != nil {
		return false, m.InsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.byTxnID[p.TransactionID]
	if !exists {
		m.byTxnID[p.TransactionID] = *p
	}
	m.InsertCalls = append(m.InsertCalls, InsertCall{
		TransactionID: p.TransactionID,
		Created:       !exists,
	})
	return !exists, nil
}

func (m *MockPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byTxnID {
		if p.ID == id {
			copied := p
			return &copied, true, nil
		}
	}
	return nil, false, nil
}

func (m *MockPaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byTxnID[transactionID]
	if !ok {
		return nil, false, nil
	}
	copied := p
	return &copied, true, nil
}

func (m *MockPaymentStore) GetByOrderID(ctx context.Context, orderID string) (*payment.Payment, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *payment.Payment
	for _, p := range m.byTxnID {
		if p.OrderID != orderID {
			continue
		}
		copied := p
		if latest == nil || copied.PaidAt.After(latest.PaidAt) {
			latest = &copied
		}
	}
	if latest == nil {
		return nil, false, nil
	}
	return latest, true, nil
}

func (m *MockPaymentStore) List(ctx context.Context) ([]*payment.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*payment.Payment, 0, len(m.byTxnID))
	for _, p := range m.byTxnID {
		copied := p
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PaidAt.After(out[j].PaidAt)
	})
	return out, nil
}

// Count returns the number of persisted payment rows
func (m *MockPaymentStore) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byTxnID)
}
