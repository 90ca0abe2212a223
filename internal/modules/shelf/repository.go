package shelf

import "context"

// Repository defines shelf data storage. Reference numbers are unique.
type Repository interface {
	Create(ctx context.Context, s *Shelf) error
	GetByID(ctx context.Context, id int64) (*Shelf, error)
	List(ctx context.Context) ([]*Shelf, error)
	Update(ctx context.Context, s *Shelf) error
	Delete(ctx context.Context, id int64) error
}
