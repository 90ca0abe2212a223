package category

import (
	"context"
	"database/sql"
	"errors"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/database"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) Create(ctx context.Context, c *Category) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at`, c.Name).
		Scan(&c.ID, &c.CreatedAt)
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*Category, error) {
	c := &Category{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM categories WHERE id=$1`, id).
		Scan(&c.ID, &c.Name, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	return c, err
}

func (r *postgresRepo) List(ctx context.Context) ([]*Category, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*Category
	for rows.Next() {
		c := &Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, c *Category) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET name=$1 WHERE id=$2`, c.Name, c.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(c.ID)
	}
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, id)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return stillInUse(id)
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id int64) error {
	return apperr.Newf("category.Get", apperr.KindNotFound, "category %d not found", id)
}

func stillInUse(id int64) error {
	return apperr.Newf("category.Delete", apperr.KindConflict, "category %d is still used by items", id)
}
