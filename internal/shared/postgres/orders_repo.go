package postgres

import (
	"context"
	"errors"

	"git.platform.alem.school/amibragim/shop-events/internal/domain/orders"
	"git.platform.alem.school/amibragim/shop-events/internal/ports"

	"github.com/jackc/pgx/v5"
)

// OrdersRepo implements persistence for orders using pgx and SQL.
type OrdersRepo struct{}

// NewOrdersRepo constructs a new OrdersRepo.
func NewOrdersRepo() ports.OrderRepository {
	return &OrdersRepo{}
}

// Create inserts a placed order.
func (r *OrdersRepo) Create(ctx context.Context, order *orders.Order) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	// note: total_price is NUMERIC(10,2) in DB; we send integer cents and divide by 100 in SQL.
	var email *string
	if order.UserEmail != "" {
		email = &order.UserEmail
	}

	return tx.QueryRow(ctx, `
		INSERT INTO orders (id, product_id, user_id, user_email, quantity, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6::numeric/100, $7)
		RETURNING created_at, updated_at`,
		order.ID,
		order.ProductID,
		order.UserID,
		email,
		order.Quantity,
		int64(order.TotalPrice),
		string(order.Status),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
}

const orderColumns = `id, product_id, user_id, COALESCE(user_email, ''), quantity, (total_price * 100)::bigint, status, created_at, updated_at`

func scanOrder(row pgx.Row, o *orders.Order) error {
	return row.Scan(&o.ID, &o.ProductID, &o.UserID, &o.UserEmail, &o.Quantity, &o.TotalPrice, &o.Status, &o.CreatedAt, &o.UpdatedAt)
}

// GetByID returns the order or ports.ErrNotFound.
func (r *OrdersRepo) GetByID(ctx context.Context, id string) (*orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var o orders.Order
	err = scanOrder(tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id), &o)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// List returns orders newest first, optionally only those of userID.
func (r *OrdersRepo) List(ctx context.Context, userID string) ([]orders.Order, error) {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE $1 = '' OR user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []orders.Order{}
	for rows.Next() {
		var o orders.Order
		if err := scanOrder(rows, &o); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// UpdateStatus moves an order from one status to another. It returns
// ports.ErrConflict when the stored status is no longer from.
func (r *OrdersRepo) UpdateStatus(ctx context.Context, id string, from, to orders.OrderStatus) error {
	tx, err := MustTxFromContext(ctx)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE orders
		SET status = $3, updated_at = now()
		WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrConflict
	}
	return nil
}
