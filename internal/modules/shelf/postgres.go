package shelf

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, s *Shelf) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO shelves (reference_number) VALUES ($1) RETURNING id, created_at`, s.ReferenceNumber).
		Scan(&s.ID, &s.CreatedAt)
	if database.IsUniqueViolation(err) {
		return duplicateReference(s.ReferenceNumber)
	}
	return err
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Shelf, error) {
	s := &Shelf{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, reference_number, created_at FROM shelves WHERE id=$1`, id).
		Scan(&s.ID, &s.ReferenceNumber, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return s, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Shelf, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, reference_number, created_at FROM shelves ORDER BY reference_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Shelf
	for rows.Next() {
		s := &Shelf{}
		if err := rows.Scan(&s.ID, &s.ReferenceNumber, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, s *Shelf) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE shelves SET reference_number=$1 WHERE id=$2`, s.ReferenceNumber, s.ID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return duplicateReference(s.ReferenceNumber)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(s.ID)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM shelves WHERE id=$1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return apperr.Newf("shelf.Delete", apperr.KindConflict, "shelf %d still holds items", id)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id int64) error {
	return apperr.Newf("shelf.Get", apperr.KindNotFound, "shelf %d not found", id)
}

func duplicateReference(ref string) error {
	return apperr.Newf("shelf.Save", apperr.KindConflict, "shelf %q already exists", ref)
}
