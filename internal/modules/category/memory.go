package category

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InUseFunc reports whether any item still references the category.
type InUseFunc func(ctx context.Context, categoryID int64) (bool, error)

type memoryRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]Category
	inUse  InUseFunc
}

// NewMemoryRepository returns an in-process Repository. inUse may be nil.
func NewMemoryRepository(inUse InUseFunc) Repository {
	return &memoryRepo{rows: make(map[int64]Category), inUse: inUse}
}

func (r *memoryRepo) Create(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	c.CreatedAt = time.Now().UTC()
	r.rows[c.ID] = *c
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, notFound(id)
	}
	return &c, nil
}

func (r *memoryRepo) List(_ context.Context) ([]*Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Category, 0, len(r.rows))
	for _, c := range r.rows {
		c := c
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memoryRepo) Update(_ context.Context, c *Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[c.ID]
	if !ok {
		return notFound(c.ID)
	}
	existing.Name = c.Name
	r.rows[c.ID] = existing
	*c = existing
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if r.inUse != nil {
		used, err := r.inUse(ctx, id)
		if err != nil {
			return err
		}
		if used {
			return stillInUse(id)
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
