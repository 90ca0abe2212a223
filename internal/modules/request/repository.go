package request

import "context"

// Repository defines request storage. Lines are written with their request
// and never change afterwards.
type Repository interface {
	Create(ctx context.Context, r *Request) error
	GetByID(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context) ([]*Request, error)
	// CompareAndSetStatus moves the request from one status to another and
	// reports false when the request was not in status from.
	CompareAndSetStatus(ctx context.Context, id int64, from, to Status) (bool, error)
}
