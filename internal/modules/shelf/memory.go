package shelf

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
)

// InUseFunc reports whether any item is still stored on the shelf.
type InUseFunc func(ctx context.Context, shelfID int64) (bool, error)

type memoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Shelf
	inUse  InUseFunc
}

// NewMemoryRepository returns an in-process Repository. inUse may be nil.
func NewMemoryRepository(inUse InUseFunc) Repository {
	return &memoryRepo{rows: make(map[int64]Shelf), inUse: inUse}
}

func (r *memoryRepo) referenceTaken(ref string, except int64) bool {
	for id, s := range r.rows {
		if id != except && s.ReferenceNumber == ref {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(_ context.Context, s *Shelf) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.referenceTaken(s.ReferenceNumber, 0) {
		return duplicateReference(s.ReferenceNumber)
	}
	r.nextID++
	s.ID = r.nextID
	s.CreatedAt = time.Now().UTC()
	r.rows[s.ID] = *s
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*Shelf, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.rows[id]
	if !ok {
		return nil, notFound(id)
	}
	return &s, nil
}

func (r *memoryRepo) List(_ context.Context) ([]*Shelf, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Shelf, 0, len(r.rows))
	for _, s := range r.rows {
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReferenceNumber < out[j].ReferenceNumber })
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, s *Shelf) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[s.ID]
	if !ok {
		return notFound(s.ID)
	}
	if r.referenceTaken(s.ReferenceNumber, s.ID) {
		return duplicateReference(s.ReferenceNumber)
	}
	existing.ReferenceNumber = s.ReferenceNumber
	r.rows[s.ID] = existing
	*s = existing
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if r.inUse != nil {
		used, err := r.inUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return apperr.Newf("shelf.Delete", apperr.KindConflict, "shelf %d still holds items", id)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return notFound(id)
	}
	delete(r.rows, id)
	return nil
}
