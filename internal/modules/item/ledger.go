package item

import (
	"sort"

	"github.com/georgemunganga/stockroom/internal/apperr"
)

// lockOrder returns the distinct item ids of adjustments in ascending order.
// Every ledger implementation takes its locks in this order.
func lockOrder(adjustments []Adjustment) []int64 {
	seen := make(map[int64]struct{}, len(adjustments))
	ids := make([]int64, 0, len(adjustments))
	for _, a := range adjustments {
		if _, ok := seen[a.ItemID]; ok {
			continue
		}
		seen[a.ItemID] = struct{}{}
		ids = append(ids, a.ItemID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// plan validates adjustments against the locked state and returns the
// snapshots in input order plus the final quantity per item. current is not
// modified. The first missing, out of range or overdrawn item in input order
// is reported.
func plan(current map[int64]Snapshot, adjustments []Adjustment) ([]Snapshot, map[int64]int, error) {
	running := make(map[int64]int, len(current))
	for id, s := range current {
		running[id] = s.Quantity
	}
	out := make([]Snapshot, 0, len(adjustments))
	for _, a := range adjustments {
		base, ok := current[a.ItemID]
		if !ok {
			return nil, nil, notFound(a.ItemID)
		}
		if a.Delta > MaxQuantity || a.Delta < -MaxQuantity {
			return nil, nil, apperr.Newf("item.BatchAdjust", apperr.KindValidation,
				"adjustment of item %d must be within ±%d", a.ItemID, MaxQuantity)
		}
		next := running[a.ItemID] + a.Delta
		if next > MaxQuantity {
			return nil, nil, apperr.Newf("item.BatchAdjust", apperr.KindValidation,
				"quantity of item %d would exceed %d", a.ItemID, MaxQuantity)
		}
		if next < 0 {
			return nil, nil, &InsufficientStockError{
				ItemID:    a.ItemID,
				Requested: -a.Delta,
				Available: running[a.ItemID],
			}
		}
		running[a.ItemID] = next
		base.Quantity = next
		out = append(out, base)
	}
	return out, running, nil
}
