package category

import "context"

// Repository defines category data storage.
type Repository interface {
	Create(ctx context.Context, c *Category) error
	GetByID(ctx context.Context, id int64) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, c *Category) error
	// Delete fails with a Conflict when items still reference the category.
	Delete(ctx context.Context, id int64) error
}
