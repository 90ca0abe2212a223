package category

import "time"

// Category groups items, e.g. "Consumables" or "Spare parts".
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// SaveCategoryRequest is the payload for creating or renaming a category.
type SaveCategoryRequest struct {
	Name string `json:"name"`
}

const maxNameLength = 50
