package replenishment

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	orders []Order
}

// NewMemoryRepository returns an in-process Repository.
func NewMemoryRepository() Repository { return &memoryRepo{} }

func (r *memoryRepo) CreateOrders(_ context.Context, orders []*Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range orders {
		r.nextID++
		o.ID = r.nextID
		r.orders = append(r.orders, *o)
	}
	return nil
}

func (r *memoryRepo) filter(keep func(Order) bool) []*Order {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Order
	// newest first
	for i := len(r.orders) - 1; i >= 0; i-- {
		if o := r.orders[i]; keep(o) {
			out = append(out, &o)
		}
	}
	return out
}

func (r *memoryRepo) List(_ context.Context) ([]*Order, error) {
	return r.filter(func(Order) bool { return true }), nil
}

func (r *memoryRepo) ListByItem(_ context.Context, itemID int64) ([]*Order, error) {
	return r.filter(func(o Order) bool { return o.ItemID == itemID }), nil
}
