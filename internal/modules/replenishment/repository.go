package replenishment

import "context"

// Repository records replenishment orders.
type Repository interface {
	// CreateOrders stores every order or none, filling in ids.
	CreateOrders(ctx context.Context, orders []*Order) error
	List(ctx context.Context) ([]*Order, error)
	ListByItem(ctx context.Context, itemID int64) ([]*Order, error)
}
