package item

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/database"
	"github.com/georgemunganga/stockroom/internal/platform/resilience"
	"github.com/lib/pq"
)

// LedgerOptions bounds how long a ledger call may wait on contended rows.
type LedgerOptions struct {
	LockTimeout time.Duration
	MaxRetries  int
	RetryDelay  time.Duration
}

// PostgresStore implements Store on PostgreSQL. Ledger calls run in one
// transaction that row-locks the affected items in ascending id order.
type PostgresStore struct {
	db    *sql.DB
	opts  LedgerOptions
	retry *resilience.RetryConfig
}

func NewPostgresStore(db *sql.DB, opts LedgerOptions) *PostgresStore {
	retry := resilience.DefaultRetryConfig()
	if opts.MaxRetries > 0 {
		retry.MaxAttempts = opts.MaxRetries + 1
	}
	if opts.RetryDelay > 0 {
		retry.InitialDelay = opts.RetryDelay
	}
	retry.Retryable = database.IsRetryable
	return &PostgresStore{db: db, opts: opts, retry: retry}
}

const itemColumns = `id, name, description, quantity, reorder_point, reorder_quantity, category_id, shelf_id, date_entered, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*Item, error) {
	it := &Item{}
	err := row.Scan(&it.ID, &it.Name, &it.Description, &it.Quantity, &it.ReorderPoint,
		&it.ReorderQuantity, &it.CategoryID, &it.ShelfID, &it.DateEntered, &it.UpdatedAt)
	return it, err
}

func (s *PostgresStore) Create(ctx context.Context, it *Item) error {
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO items (name, description, quantity, reorder_point, reorder_quantity, category_id, shelf_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, date_entered, updated_at`,
		it.Name, it.Description, it.Quantity, it.ReorderPoint, it.ReorderQuantity, it.CategoryID, it.ShelfID).
		Scan(&it.ID, &it.DateEntered, &it.UpdatedAt)
	if database.IsForeignKeyViolation(err) {
		return apperr.New("item.Create", apperr.KindNotFound, "category or shelf not found")
	}
	return err
}

func (s *PostgresStore) GetByID(ctx context.Context, id int64) (*Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return it, nil
}

func (s *PostgresStore) query(ctx context.Context, q string) ([]*Item, error) {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (s *PostgresStore) List(ctx context.Context) ([]*Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM items ORDER BY id`)
}

func (s *PostgresStore) ListLowStock(ctx context.Context) ([]*Item, error) {
	return s.query(ctx, `SELECT `+itemColumns+` FROM items
		WHERE quantity < reorder_point
		ORDER BY reorder_point - quantity DESC, id`)
}

func (s *PostgresStore) Update(ctx context.Context, it *Item) error {
	updated, err := scanItem(s.db.QueryRowContext(ctx,
		`UPDATE items SET name=$1, description=$2, reorder_point=$3, reorder_quantity=$4,
		 category_id=$5, shelf_id=$6, updated_at=NOW()
		 WHERE id=$7 RETURNING `+itemColumns,
		it.Name, it.Description, it.ReorderPoint, it.ReorderQuantity, it.CategoryID, it.ShelfID, it.ID))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return notFound(it.ID)
	case database.IsForeignKeyViolation(err):
		return apperr.New("item.Update", apperr.KindNotFound, "category or shelf not found")
	case err != nil:
		return err
	}
	*it = *updated
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func (s *PostgresStore) GetQuantity(ctx context.Context, itemID int64) (int, error) {
	var qty int
	err := s.db.QueryRowContext(ctx, `SELECT quantity FROM items WHERE id=$1`, itemID).Scan(&qty)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, notFound(itemID)
	}
	return qty, err
}

func (s *PostgresStore) TryAdjust(ctx context.Context, itemID int64, delta int) (int, error) {
	snaps, err := s.BatchAdjust(ctx, []Adjustment{{ItemID: itemID, Delta: delta}})
	if err != nil {
		return 0, err
	}
	return snaps[0].Quantity, nil
}

func (s *PostgresStore) BatchAdjust(ctx context.Context, adjustments []Adjustment) ([]Snapshot, error) {
	if len(adjustments) == 0 {
		return nil, nil
	}
	var snaps []Snapshot
	err := resilience.Retry(ctx, s.retry, func() error {
		var err error
		snaps, err = s.batchAdjust(ctx, adjustments)
		return err
	})
	if err != nil {
		return nil, classify(err)
	}
	return snaps, nil
}

func (s *PostgresStore) batchAdjust(ctx context.Context, adjustments []Adjustment) ([]Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if s.opts.LockTimeout > 0 {
		// SET does not accept bind parameters.
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", s.opts.LockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, err
		}
	}

	ids := lockOrder(adjustments)
	rows, err := tx.QueryContext(ctx,
		`SELECT id, quantity, reorder_point, reorder_quantity FROM items
		 WHERE id = ANY($1) ORDER BY id FOR UPDATE`, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	current := make(map[int64]Snapshot, len(ids))
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ItemID, &snap.Quantity, &snap.ReorderPoint, &snap.ReorderQuantity); err != nil {
			rows.Close()
			return nil, err
		}
		current[snap.ItemID] = snap
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	snaps, final, err := plan(current, adjustments)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET quantity=$1, updated_at=NOW() WHERE id=$2`, final[id], id); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return snaps, nil
}

// classify maps driver and retry failures onto the error taxonomy. Domain
// errors pass through unchanged.
func classify(err error) error {
	switch {
	case errors.Is(err, resilience.ErrMaxRetriesExceeded):
		return &apperr.Error{Op: "item.BatchAdjust", Kind: apperr.KindConflict,
			Message: "stock is under heavy contention, try again", Err: err}
	case database.IsLockTimeout(err):
		return &apperr.Error{Op: "item.BatchAdjust", Kind: apperr.KindTimeout,
			Message: "timed out waiting for stock lock", Err: err}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap("item.BatchAdjust", apperr.KindTimeout, err)
	case database.IsCheckViolation(err):
		return &apperr.Error{Op: "item.BatchAdjust", Kind: apperr.KindConflict,
			Message: "stock changed concurrently", Err: err}
	}
	return err
}
