package store

import (
	"context"
	"database/sql"

	"github.com/example/bookstore-payments/internal/domain/payment"
)

// PostgresPaymentStore implements payment.Store on PostgreSQL. The
// unique index on transaction_id makes Insert atomic with respect to
// concurrent callback handlers: ON CONFLICT DO NOTHING turns a
// redelivered transaction into an affected-rows count of zero instead
// of an error.
type PostgresPaymentStore struct {
	db *sql.DB
}

func NewPostgresPaymentStore(db *sql.DB) *PostgresPaymentStore {
	return &PostgresPaymentStore{db: db}
}

const paymentColumns = `id, order_id, payment_method, amount, transaction_id, status, paid_at`

func (s *PostgresPaymentStore) Insert(ctx context.Context, p *payment.Payment) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, payment_method, amount, transaction_id, status, paid_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (transaction_id) DO NOTHING`,
		p.ID, p.OrderID, p.Method, p.Amount, p.TransactionID, p.Status, p.PaidAt,
	)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (s *PostgresPaymentStore) Get(ctx context.Context, id string) (*payment.Payment, bool, error) {
	return s.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

func (s *PostgresPaymentStore) GetByTransactionID(ctx context.Context, transactionID string) (*payment.Payment, bool, error) {
	return s.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
}

func (s *PostgresPaymentStore) GetByOrderID(ctx context.Context, orderID string) (*payment.Payment, bool, error) {
	return s.getOne(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY paid_at DESC LIMIT 1`,
		orderID)
}

func (s *PostgresPaymentStore) List(ctx context.Context) ([]*payment.Payment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments ORDER BY paid_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*payment.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *PostgresPaymentStore) getOne(ctx context.Context, query string, arg any) (*payment.Payment, bool, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, query, arg))
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

func scanPayment(row rowScanner) (*payment.Payment, error) {
	var p payment.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.TransactionID, &p.Status, &p.PaidAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
