package item

import "context"

// Repository defines item catalogue storage. Update never writes quantity.
type Repository interface {
	Create(ctx context.Context, it *Item) error
	GetByID(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	// ListLowStock returns items below their reorder point, largest deficit first.
	ListLowStock(ctx context.Context) ([]*Item, error)
	Update(ctx context.Context, it *Item) error
	Delete(ctx context.Context, id int64) error
}

// Ledger is the only path that mutates item quantities.
type Ledger interface {
	GetQuantity(ctx context.Context, itemID int64) (int, error)
	// TryAdjust applies delta and returns the new quantity, or fails with
	// InsufficientStockError leaving the item untouched.
	TryAdjust(ctx context.Context, itemID int64, delta int) (int, error)
	// BatchAdjust applies every adjustment or none. Snapshots are returned in
	// input order.
	BatchAdjust(ctx context.Context, adjustments []Adjustment) ([]Snapshot, error)
}

// Store is an item repository that also keeps the ledger.
type Store interface {
	Repository
	Ledger
}
