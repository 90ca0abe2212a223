package item

import (
	"math"
	"time"
)

// Item is a stocked article. Quantity is owned by the Ledger once the item
// exists.
type Item struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	Quantity        int       `json:"quantity"`
	ReorderPoint    int       `json:"reorderPoint"`
	ReorderQuantity int       `json:"reorderQuantity"`
	CategoryID      int64     `json:"categoryId"`
	ShelfID         int64     `json:"shelfId"`
	DateEntered     time.Time `json:"dateEntered"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Deficit is how far the item sits below its reorder point.
func (i *Item) Deficit() int { return i.ReorderPoint - i.Quantity }

// Adjustment is a signed change to one item's quantity.
type Adjustment struct {
	ItemID int64
	Delta  int
}

// Snapshot is the state of an item right after an adjustment committed.
type Snapshot struct {
	ItemID          int64 `json:"itemId"`
	Quantity        int   `json:"quantity"`
	ReorderPoint    int   `json:"reorderPoint"`
	ReorderQuantity int   `json:"reorderQuantity"`
}

// BelowReorderPoint reports whether the item needs replenishing.
func (s Snapshot) BelowReorderPoint() bool { return s.Quantity < s.ReorderPoint }

// SaveItemRequest is the payload for creating or updating an item.
// Quantity is only honoured on create.
type SaveItemRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	Quantity        int    `json:"quantity"`
	ReorderPoint    int    `json:"reorderPoint"`
	ReorderQuantity int    `json:"reorderQuantity"`
	CategoryID      int64  `json:"categoryId"`
	ShelfID         int64  `json:"shelfId"`
}

// AdjustStockRequest records a manual receipt (positive) or write-off (negative).
type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

// StockLevel is returned after a manual adjustment.
type StockLevel struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

const maxNameLength = 100

// MaxQuantity is the largest stock level, reorder point or delta the
// INTEGER columns can hold.
const MaxQuantity = math.MaxInt32
