package replenishment

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) CreateOrders(ctx context.Context, orders []*Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, o := range orders {
		err := tx.QueryRowContext(ctx,
			`INSERT INTO replenishment_orders (reference, item_id, supplier, quantity, order_date, expected_arrival)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			o.Reference, o.ItemID, o.Supplier, o.Quantity, o.OrderDate, o.ExpectedArrival).Scan(&o.ID)
		if err != nil {
			return fmt.Errorf("insert order %s: %w", o.Reference, err)
		}
	}
	return tx.Commit()
}

const orderColumns = `id, reference, item_id, supplier, quantity, order_date, expected_arrival`

func (r *postgresRepo) list(ctx context.Context, query string, args ...any) ([]*Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(&o.ID, &o.Reference, &o.ItemID, &o.Supplier, &o.Quantity,
			&o.OrderDate, &o.ExpectedArrival); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *postgresRepo) List(ctx context.Context) ([]*Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM replenishment_orders ORDER BY order_date DESC, id DESC`)
}

func (r *postgresRepo) ListByItem(ctx context.Context, itemID int64) ([]*Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+` FROM replenishment_orders
		WHERE item_id=$1 ORDER BY order_date DESC, id DESC`, itemID)
}
