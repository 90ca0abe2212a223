package replenishment

import "context"

// Service exposes recorded orders for reading.
type Service interface {
	List(ctx context.Context, itemID int64) ([]*Order, error)
}

type service struct{ repo Repository }

// NewService creates a new replenishment order service.
func NewService(repo Repository) Service { return &service{repo: repo} }

// List returns every order, or only those for itemID when it is positive.
func (s *service) List(ctx context.Context, itemID int64) ([]*Order, error) {
	if itemID > 0 {
		return s.repo.ListByItem(ctx, itemID)
	}
	return s.repo.List(ctx)
}
