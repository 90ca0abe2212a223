package item

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
)

type entry struct {
	mu      sync.Mutex
	item    Item
	deleted bool
}

// MemoryStore keeps items in process. Each item has its own mutex so
// adjustments of unrelated items never contend.
type MemoryStore struct {
	mu     sync.RWMutex // guards items and nextID, never held while waiting on an entry
	nextID int64
	items  map[int64]*entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[int64]*entry)}
}

func (s *MemoryStore) lookup(id int64) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	return e, ok
}

func (s *MemoryStore) Create(_ context.Context, it *Item) error {
	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	it.ID = s.nextID
	it.DateEntered = now
	it.UpdatedAt = now
	s.items[it.ID] = &entry{item: *it}
	return nil
}

func (s *MemoryStore) GetByID(_ context.Context, id int64) (*Item, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, notFound(id)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil, notFound(id)
	}
	it := e.item
	return &it, nil
}

func (s *MemoryStore) snapshotAll() []*Item {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.items))
	for _, e := range s.items {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]*Item, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			it := e.item
			out = append(out, &it)
		}
		e.mu.Unlock()
	}
	return out
}

func (s *MemoryStore) List(_ context.Context) ([]*Item, error) {
	out := s.snapshotAll()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) ListLowStock(_ context.Context) ([]*Item, error) {
	var low []*Item
	for _, it := range s.snapshotAll() {
		if it.Quantity < it.ReorderPoint {
			low = append(low, it)
		}
	}
	sortByDeficit(low)
	return low, nil
}

func (s *MemoryStore) Update(_ context.Context, it *Item) error {
	e, ok := s.lookup(it.ID)
	if !ok {
		return notFound(it.ID)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return notFound(it.ID)
	}
	e.item.Name = it.Name
	e.item.Description = it.Description
	e.item.ReorderPoint = it.ReorderPoint
	e.item.ReorderQuantity = it.ReorderQuantity
	e.item.CategoryID = it.CategoryID
	e.item.ShelfID = it.ShelfID
	e.item.UpdatedAt = time.Now().UTC()
	*it = e.item
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	e, ok := s.items[id]
	delete(s.items, id)
	s.mu.Unlock()
	if !ok {
		return notFound(id)
	}
	// adjusters already holding e finish first, then see it gone
	e.mu.Lock()
	e.deleted = true
	e.mu.Unlock()
	return nil
}

func (s *MemoryStore) GetQuantity(ctx context.Context, itemID int64) (int, error) {
	it, err := s.GetByID(ctx, itemID)
	if err != nil {
		return 0, err
	}
	return it.Quantity, nil
}

func (s *MemoryStore) TryAdjust(ctx context.Context, itemID int64, delta int) (int, error) {
	snaps, err := s.BatchAdjust(ctx, []Adjustment{{ItemID: itemID, Delta: delta}})
	if err != nil {
		return 0, err
	}
	return snaps[0].Quantity, nil
}

func (s *MemoryStore) BatchAdjust(ctx context.Context, adjustments []Adjustment) ([]Snapshot, error) {
	if len(adjustments) == 0 {
		return nil, nil
	}
	ids := lockOrder(adjustments)

	entries := make([]*entry, 0, len(ids))
	s.mu.RLock()
	for _, id := range ids {
		if e, ok := s.items[id]; ok {
			entries = append(entries, e)
		}
	}
	s.mu.RUnlock()

	for _, e := range entries {
		e.mu.Lock()
		defer e.mu.Unlock()
	}

	current := make(map[int64]Snapshot, len(entries))
	for _, e := range entries {
		if e.deleted {
			continue
		}
		current[e.item.ID] = Snapshot{
			ItemID:          e.item.ID,
			Quantity:        e.item.Quantity,
			ReorderPoint:    e.item.ReorderPoint,
			ReorderQuantity: e.item.ReorderQuantity,
		}
	}

	snaps, final, err := plan(current, adjustments)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperr.Wrap("item.BatchAdjust", apperr.KindTimeout, err)
	}

	now := time.Now().UTC()
	for _, e := range entries {
		e.item.Quantity = final[e.item.ID]
		e.item.UpdatedAt = now
	}
	return snaps, nil
}

// CategoryInUse reports whether any item belongs to the category.
func (s *MemoryStore) CategoryInUse(_ context.Context, categoryID int64) (bool, error) {
	for _, it := range s.snapshotAll() {
		if it.CategoryID == categoryID {
			return true, nil
		}
	}
	return false, nil
}

// ShelfInUse reports whether any item is stored on the shelf.
func (s *MemoryStore) ShelfInUse(_ context.Context, shelfID int64) (bool, error) {
	for _, it := range s.snapshotAll() {
		if it.ShelfID == shelfID {
			return true, nil
		}
	}
	return false, nil
}

func sortByDeficit(items []*Item) {
	sort.Slice(items, func(i, j int) bool {
		di, dj := items[i].Deficit(), items[j].Deficit()
		if di != dj {
			return di > dj
		}
		return items[i].ID < items[j].ID
	})
}
