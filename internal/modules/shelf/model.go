package shelf

import "time"

// Shelf is a storage location identified by a short reference number.
type Shelf struct {
	ID              int64     `json:"id"`
	ReferenceNumber string    `json:"referenceNumber"`
	CreatedAt       time.Time `json:"createdAt"`
}

// SaveShelfRequest is the payload for creating or relabelling a shelf.
type SaveShelfRequest struct {
	ReferenceNumber string `json:"referenceNumber"`
}

const maxReferenceLength = 10
