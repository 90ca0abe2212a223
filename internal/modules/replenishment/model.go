package replenishment

import "time"

// Order asks a supplier to restock one item. Orders are never modified once
// recorded.
type Order struct {
	ID              int64     `json:"id"`
	Reference       string    `json:"reference"`
	ItemID          int64     `json:"itemId"`
	Supplier        string    `json:"supplier"`
	Quantity        int       `json:"quantity"`
	OrderDate       time.Time `json:"orderDate"`
	ExpectedArrival time.Time `json:"expectedArrival"`
}

// Policy decides who supplies replenishment and how long it takes.
type Policy struct {
	DefaultSupplier string
	LeadTimeDays    int
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{DefaultSupplier: "Supplier 1", LeadTimeDays: 5}
}

// orderPlaced is the event published for every recorded order.
type orderPlaced struct {
	Type            string    `json:"type"`
	OrderID         int64     `json:"orderId"`
	Reference       string    `json:"reference"`
	ItemID          int64     `json:"itemId"`
	Supplier        string    `json:"supplier"`
	Quantity        int       `json:"quantity"`
	OrderDate       time.Time `json:"orderDate"`
	ExpectedArrival time.Time `json:"expectedArrival"`
}

const eventOrderPlaced = "ReplenishmentOrderPlaced"
