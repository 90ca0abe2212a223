package request

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

// Create inserts the request and all its lines inside a single transaction.
func (r *postgresRepo) Create(ctx context.Context, req *Request) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO requests (requester, date_expected, status, request_date)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		req.From, req.DateExpected, req.Status, req.RequestDate).Scan(&req.ID)
	if err != nil {
		return fmt.Errorf("insert request: %w", err)
	}

	for i, l := range req.Lines {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO request_lines (request_id, position, item_id, quantity)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			req.ID, i, l.ItemID, l.Quantity).Scan(&l.ID)
		if err != nil {
			return fmt.Errorf("insert request_line: %w", err)
		}
		l.RequestID = req.ID
	}

	return tx.Commit()
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Request, error) {
	req := &Request{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, requester, date_expected, status, request_date
		FROM requests WHERE id=$1`, id).
		Scan(&req.ID, &req.From, &req.DateExpected, &req.Status, &req.RequestDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, []*Request{req}); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *postgresRepo) List(ctx context.Context) ([]*Request, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, requester, date_expected, status, request_date
		FROM requests ORDER BY request_date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Request
	for rows.Next() {
		req := &Request{}
		if err := rows.Scan(&req.ID, &req.From, &req.DateExpected, &req.Status, &req.RequestDate); err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachLines(ctx, out); err != nil {
		return nil, err
	}
	return out, nil
}

// attachLines loads the lines of every request in one query.
func (r *postgresRepo) attachLines(ctx context.Context, reqs []*Request) error {
	if len(reqs) == 0 {
		return nil
	}
	byID := make(map[int64]*Request, len(reqs))
	ids := make([]int64, 0, len(reqs))
	for _, req := range reqs {
		req.Lines = []*Line{}
		byID[req.ID] = req
		ids = append(ids, req.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, request_id, item_id, quantity FROM request_lines
		WHERE request_id = ANY($1) ORDER BY request_id, position`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		l := &Line{}
		if err := rows.Scan(&l.ID, &l.RequestID, &l.ItemID, &l.Quantity); err != nil {
			return err
		}
		if req, ok := byID[l.RequestID]; ok {
			req.Lines = append(req.Lines, l)
		}
	}
	return rows.Err()
}

func (r *postgresRepo) CompareAndSetStatus(ctx context.Context, id int64, from, to Status) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE requests SET status=$1 WHERE id=$2 AND status=$3`, to, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func notFound(id int64) error {
	return apperr.Newf("request.Get", apperr.KindNotFound, "request %d not found", id)
}
