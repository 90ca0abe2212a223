package item

import (
	"fmt"

	"github.com/georgemunganga/stockroom/internal/apperr"
)

// InsufficientStockError reports an adjustment that would drive an item
// negative. Nothing was mutated.
type InsufficientStockError struct {
	ItemID    int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %d: requested %d, available %d",
		e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == apperr.ErrInsufficientStock
}

// MissingItemError reports an adjustment against an item that does not exist.
type MissingItemError struct {
	ItemID int64
}

func (e *MissingItemError) Error() string {
	return fmt.Sprintf("item %d not found", e.ItemID)
}

func (e *MissingItemError) Is(target error) bool {
	return target == apperr.ErrNotFound
}

func notFound(id int64) error { return &MissingItemError{ItemID: id} }
