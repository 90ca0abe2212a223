package request

import (
	"context"
	"sort"
	"sync"
)

type memoryRepo struct {
	mu       sync.RWMutex
	nextID   int64
	nextLine int64
	rows     map[int64]*Request
}

// NewMemoryRepository returns an in-process Repository.
func NewMemoryRepository() Repository {
	return &memoryRepo{rows: make(map[int64]*Request)}
}

func (r *memoryRepo) Create(_ context.Context, req *Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	req.ID = r.nextID
	for _, l := range req.Lines {
		r.nextLine++
		l.ID = r.nextLine
		l.RequestID = req.ID
	}
	r.rows[req.ID] = clone(req)
	return nil
}

func (r *memoryRepo) GetByID(_ context.Context, id int64) (*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.rows[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(req), nil
}

func (r *memoryRepo) List(_ context.Context) ([]*Request, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Request, 0, len(r.rows))
	for _, req := range r.rows {
		out = append(out, clone(req))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryRepo) CompareAndSetStatus(_ context.Context, id int64, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.rows[id]
	if !ok || req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

// clone copies the request and its lines without the item views, which are
// not part of the stored record.
func clone(req *Request) *Request {
	c := *req
	c.Lines = make([]*Line, len(req.Lines))
	for i, l := range req.Lines {
		lc := *l
		lc.Item = nil
		c.Lines[i] = &lc
	}
	return &c
}
