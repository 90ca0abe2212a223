package request

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"github.com/georgemunganga/stockroom/internal/modules/replenishment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	items    *item.MemoryStore
	requests Repository
	orders   replenishment.Repository
	engine   *Engine
	svc      Service
}

func newFixture(t *testing.T, items ...item.Item) *fixture {
	t.Helper()
	f := &fixture{
		items:    item.NewMemoryStore(),
		requests: NewMemoryRepository(),
		orders:   replenishment.NewMemoryRepository(),
	}
	for i := range items {
		require.NoError(t, f.items.Create(context.Background(), &items[i]))
	}
	f.engine = NewEngine(EngineConfig{
		Items:    f.items,
		Ledger:   f.items,
		Requests: f.requests,
		Trigger:  replenishment.NewTrigger(f.orders, nil, replenishment.DefaultPolicy(), nil),
		Logger:   zap.NewNop(),
	})
	f.svc = NewService(f.requests, f.items, f.engine, nil)
	return f
}

func (f *fixture) quantity(t *testing.T, id int64) int {
	t.Helper()
	q, err := f.items.GetQuantity(context.Background(), id)
	require.NoError(t, err)
	return q
}

func lines(pairs ...int) []LineRequest {
	out := make([]LineRequest, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, LineRequest{ItemID: int64(pairs[i]), Quantity: pairs[i+1]})
	}
	return out
}

func TestReserveThenCancelRestoresStock(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, item.Item{Name: "Gauze", Quantity: 20, ReorderPoint: 10, ReorderQuantity: 50})

	first, err := f.svc.Reserve(ctx, CreateRequest{From: "Pharmacy", Lines: lines(1, 15)})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, first.Request.Status)
	assert.Equal(t, 5, f.quantity(t, 1))
	require.Len(t, first.Orders, 1)
	assert.Equal(t, 50, first.Orders[0].Quantity)
	assert.Equal(t, int64(1), first.Orders[0].ItemID)
	assert.Empty(t, first.Warnings)

	_, err = f.svc.Reserve(ctx, CreateRequest{From: "Ward 3", Lines: lines(1, 10)})
	var insufficient *item.InsufficientStockError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 10, insufficient.Requested)
	assert.Equal(t, 5, insufficient.Available)
	assert.Equal(t, 5, f.quantity(t, 1))

	canceled, err := f.svc.ChangeStatus(ctx, first.Request.ID, "Canceled")
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, canceled.Status)
	assert.Equal(t, 20, f.quantity(t, 1))
}

func TestReserveBuildsLinesByItemID(t *testing.T) {
	f := newFixture(t,
		item.Item{Name: "Bolt", Quantity: 10},
		item.Item{Name: "Nut", Quantity: 10},
		item.Item{Name: "Washer", Quantity: 10},
	)

	res, err := f.svc.Reserve(context.Background(), CreateRequest{
		From:         "Workshop",
		DateExpected: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Lines:        lines(3, 1, 1, 2, 2, 3),
	})
	require.NoError(t, err)

	req := res.Request
	assert.NotZero(t, req.ID)
	assert.False(t, req.RequestDate.IsZero())
	require.Len(t, req.Lines, 3)
	for _, l := range req.Lines {
		require.NotNil(t, l.Item)
		assert.Equal(t, l.ItemID, l.Item.ID)
		assert.Equal(t, 10-l.Quantity, l.Item.Quantity)
	}
	assert.Equal(t, "Washer", req.Lines[0].Item.Name)
	assert.Equal(t, "Bolt", req.Lines[1].Item.Name)
	assert.Equal(t, "Nut", req.Lines[2].Item.Name)
}

func TestReserveIsAtomicAcrossLines(t *testing.T) {
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 10}, item.Item{Name: "Nut", Quantity: 2})

	_, err := f.svc.Reserve(context.Background(), CreateRequest{Lines: lines(1, 5, 2, 3)})
	assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
	assert.Equal(t, 10, f.quantity(t, 1))
	assert.Equal(t, 2, f.quantity(t, 2))

	all, _ := f.requests.List(context.Background())
	assert.Empty(t, all)
}

func TestReserveRejectsBadInput(t *testing.T) {
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 10})

	cases := map[string][]LineRequest{
		"no lines":        nil,
		"zero quantity":   lines(1, 0),
		"negative amount": lines(1, -2),
		"missing item id": lines(0, 1),
		"duplicate item":  lines(1, 1, 1, 2),
		"huge quantity":   lines(1, item.MaxQuantity+1),
	}
	for name, ls := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Reserve(context.Background(), CreateRequest{Lines: ls})
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
			assert.Equal(t, 10, f.quantity(t, 1))
		})
	}
}

func TestReserveUnknownItem(t *testing.T) {
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 10})

	_, err := f.svc.Reserve(context.Background(), CreateRequest{Lines: lines(1, 1, 42, 1)})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	assert.Equal(t, "item 42 not found", apperr.Message(err))
	assert.Equal(t, 10, f.quantity(t, 1))
}

func TestReserveDecrementsExactly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t,
		item.Item{Name: "Bolt", Quantity: 30},
		item.Item{Name: "Nut", Quantity: 12},
		item.Item{Name: "Washer", Quantity: 7},
	)

	res, err := f.svc.Reserve(ctx, CreateRequest{Lines: lines(1, 9, 2, 12, 3, 1)})
	require.NoError(t, err)
	assert.Equal(t, 21, f.quantity(t, 1))
	assert.Equal(t, 0, f.quantity(t, 2))
	assert.Equal(t, 6, f.quantity(t, 3))

	rev, err := f.engine.Reverse(ctx, res.Request)
	require.NoError(t, err)
	assert.Len(t, rev.Restocked, 3)
	assert.Equal(t, 30, f.quantity(t, 1))
	assert.Equal(t, 12, f.quantity(t, 2))
	assert.Equal(t, 7, f.quantity(t, 3))
}

func TestConcurrentReservationsThenCancels(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 100}, item.Item{Name: "Nut", Quantity: 100})

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids []int64
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ls := lines(1, 3, 2, 3)
			if i%2 == 1 {
				ls = lines(2, 3, 1, 3)
			}
			res, err := f.svc.Reserve(ctx, CreateRequest{Lines: ls})
			if err != nil {
				assert.Equal(t, apperr.KindInsufficientStock, apperr.KindOf(err))
				return
			}
			mu.Lock()
			ids = append(ids, res.Request.ID)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	assert.Len(t, ids, 33)
	assert.Equal(t, 1, f.quantity(t, 1))
	assert.Equal(t, 1, f.quantity(t, 2))

	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := f.svc.ChangeStatus(ctx, id, "canceled")
			assert.NoError(t, err)
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 100, f.quantity(t, 1))
	assert.Equal(t, 100, f.quantity(t, 2))
}

type failingTrigger struct{}

func (failingTrigger) CheckAndOrder(context.Context, map[int64]item.Snapshot) ([]*replenishment.Order, error) {
	return nil, apperr.New("replenishment.CheckAndOrder", apperr.KindDownstream, "failed to record replenishment orders")
}

func TestTriggerFailureBecomesWarning(t *testing.T) {
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 5, ReorderPoint: 5, ReorderQuantity: 10})
	f.engine.trigger = failingTrigger{}

	res, err := f.svc.Reserve(context.Background(), CreateRequest{Lines: lines(1, 1)})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "failed to record replenishment orders")
	assert.Equal(t, 4, f.quantity(t, 1))

	stored, err := f.requests.GetByID(context.Background(), res.Request.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
}

type failingRequests struct{ Repository }

func (failingRequests) Create(context.Context, *Request) error {
	return errors.New("connection reset by peer")
}

func TestPersistFailureReturnsStock(t *testing.T) {
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 5, ReorderPoint: 5, ReorderQuantity: 10})
	f.engine.requests = failingRequests{f.requests}

	_, err := f.svc.Reserve(context.Background(), CreateRequest{Lines: lines(1, 3)})
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Equal(t, 5, f.quantity(t, 1))

	orders, _ := f.orders.List(context.Background())
	assert.Empty(t, orders)
}

func TestReverseSkipsDeletedItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, item.Item{Name: "Bolt", Quantity: 10}, item.Item{Name: "Nut", Quantity: 10})

	res, err := f.svc.Reserve(ctx, CreateRequest{Lines: lines(1, 4, 2, 4)})
	require.NoError(t, err)
	require.NoError(t, f.items.Delete(ctx, 1))

	rev, err := f.engine.Reverse(ctx, res.Request)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, rev.Skipped)
	require.Len(t, rev.Restocked, 1)
	assert.Equal(t, 10, f.quantity(t, 2))
}
