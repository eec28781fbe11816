package store

import (
	"context"
	"database/sql"

	"github.com/example/bookstore-payments/internal/domain/order"
)

// PostgresOrderStore implements order.Store on PostgreSQL.
type PostgresOrderStore struct {
	db *sql.DB
}

func NewPostgresOrderStore(db *sql.DB) *PostgresOrderStore {
	return &PostgresOrderStore{db: db}
}

const orderColumns = `id, user_id, status, total_amount, shipping_address,
	COALESCE(customer_email, ''), COALESCE(cancellation_reason, ''), created_at, updated_at`

func (s *PostgresOrderStore) Insert(ctx context.Context, o *order.Order) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, status, total_amount, shipping_address, customer_email, cancellation_reason, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), $8, $9)`,
		o.ID, o.UserID, o.Status, o.TotalAmount, o.ShippingAddress,
		o.CustomerEmail, o.CancellationReason, o.CreatedAt, o.UpdatedAt,
	)
	return err
}

func (s *PostgresOrderStore) Get(ctx context.Context, id string) (*order.Order, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	o, err := scanOrder(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return o, true, nil
}

func (s *PostgresOrderStore) ListByUser(ctx context.Context, userID string) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (s *PostgresOrderStore) List(ctx context.Context) ([]*order.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

// UpdateStatus applies o's status fields guarded on the status the
// caller loaded, so concurrent transitions cannot clobber each other.
func (s *PostgresOrderStore) UpdateStatus(ctx context.Context, o *order.Order, from order.Status) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE orders
		 SET status = $2, cancellation_reason = NULLIF($3, ''), updated_at = $4
		 WHERE id = $1 AND status = $5`,
		o.ID, o.Status, o.CancellationReason, o.UpdatedAt, from,
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.Status, &o.TotalAmount, &o.ShippingAddress,
		&o.CustomerEmail, &o.CancellationReason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func collectOrders(rows *sql.Rows) ([]*order.Order, error) {
	var orders []*order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
