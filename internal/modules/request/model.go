package request

import (
	"strings"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"github.com/georgemunganga/stockroom/internal/modules/replenishment"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending  Status = "Pending"
	StatusApproved Status = "Approved"
	StatusCanceled Status = "Canceled"
)

var statuses = []Status{StatusPending, StatusApproved, StatusCanceled}

// ParseStatus resolves a status token case-insensitively.
func ParseStatus(token string) (Status, error) {
	t := strings.TrimSpace(token)
	for _, s := range statuses {
		if strings.EqualFold(t, string(s)) {
			return s, nil
		}
	}
	return "", apperr.Newf("request.ParseStatus", apperr.KindValidation,
		"unknown status %q, expected one of Pending, Approved, Canceled", token)
}

// Request is a consumption request that reserves stock for its lines.
type Request struct {
	ID           int64     `json:"id"`
	From         string    `json:"from"`
	DateExpected time.Time `json:"dateExpected"`
	Status       Status    `json:"status"`
	RequestDate  time.Time `json:"requestDate"`
	Lines        []*Line   `json:"lines"`
}

// Line reserves Quantity units of one item. Quantity is exactly what a
// reversal restores.
type Line struct {
	ID        int64      `json:"id"`
	RequestID int64      `json:"-"`
	ItemID    int64      `json:"itemId"`
	Quantity  int        `json:"quantity"`
	Item      *item.Item `json:"item,omitempty"`
}

// CreateRequest is the payload for reserving stock.
type CreateRequest struct {
	From         string        `json:"from"`
	DateExpected time.Time     `json:"dateExpected"`
	Lines        []LineRequest `json:"lines"`
}

type LineRequest struct {
	ItemID   int64 `json:"itemId"`
	Quantity int   `json:"quantity"`
}

// ChangeStatusRequest is the payload for a status change.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// Reservation is the outcome of a successful Reserve. Warnings describe
// follow-up work that failed without undoing the reservation.
type Reservation struct {
	Request  *Request
	Orders   []*replenishment.Order
	Warnings []string
}

// ReversalResult reports what a reversal restocked and which items no longer
// exist.
type ReversalResult struct {
	Restocked []item.Snapshot
	Skipped   []int64
}
