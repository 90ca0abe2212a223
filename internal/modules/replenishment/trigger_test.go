package replenishment

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var fixedNow = time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)

type failingRepo struct{ Repository }

func (failingRepo) CreateOrders(context.Context, []*Order) error {
	return errors.New("connection refused")
}

type recordingPublisher struct {
	published []*Order
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, orders []*Order) error {
	p.published = append(p.published, orders...)
	return p.err
}

func newTestTrigger(repo Repository, pub Publisher, logger *zap.Logger) *Trigger {
	tr := NewTrigger(repo, pub, Policy{DefaultSupplier: "Acme", LeadTimeDays: 5}, logger)
	tr.now = func() time.Time { return fixedNow }
	return tr
}

func TestCheckAndOrderOnlyBelowReorderPoint(t *testing.T) {
	repo := NewMemoryRepository()
	pub := &recordingPublisher{}
	tr := newTestTrigger(repo, pub, nil)

	orders, err := tr.CheckAndOrder(context.Background(), map[int64]item.Snapshot{
		3: {ItemID: 3, Quantity: 2, ReorderPoint: 3, ReorderQuantity: 20},
		1: {ItemID: 1, Quantity: 0, ReorderPoint: 1, ReorderQuantity: 7},
		2: {ItemID: 2, Quantity: 3, ReorderPoint: 3, ReorderQuantity: 50},
	})
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, int64(1), orders[0].ItemID)
	assert.Equal(t, 7, orders[0].Quantity)
	assert.Equal(t, int64(3), orders[1].ItemID)
	assert.Equal(t, 20, orders[1].Quantity)

	for _, o := range orders {
		assert.NotZero(t, o.ID)
		assert.Equal(t, "Acme", o.Supplier)
		assert.Equal(t, fixedNow, o.OrderDate)
		assert.Equal(t, fixedNow.AddDate(0, 0, 5), o.ExpectedArrival)
		assert.Regexp(t, regexp.MustCompile(`^RPL-20240131-[0-9A-F]{8}$`), o.Reference)
	}
	assert.NotEqual(t, orders[0].Reference, orders[1].Reference)
	assert.Len(t, pub.published, 2)

	stored, _ := repo.List(context.Background())
	assert.Len(t, stored, 2)
}

func TestCheckAndOrderNothingToDo(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTestTrigger(NewMemoryRepository(), pub, nil)

	orders, err := tr.CheckAndOrder(context.Background(), map[int64]item.Snapshot{
		1: {ItemID: 1, Quantity: 10, ReorderPoint: 10, ReorderQuantity: 5},
	})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, pub.published)
}

func TestCheckAndOrderPersistFailureIsDownstream(t *testing.T) {
	pub := &recordingPublisher{}
	tr := newTestTrigger(failingRepo{}, pub, nil)

	_, err := tr.CheckAndOrder(context.Background(), map[int64]item.Snapshot{
		1: {ItemID: 1, Quantity: 0, ReorderPoint: 1, ReorderQuantity: 5},
	})
	assert.Equal(t, apperr.KindDownstream, apperr.KindOf(err))
	assert.True(t, errors.Is(err, apperr.ErrDownstream))
	assert.Empty(t, pub.published)
}

func TestCheckAndOrderPublishFailureIsLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := &recordingPublisher{err: errors.New("broker unavailable")}
	tr := newTestTrigger(NewMemoryRepository(), pub, zap.New(core))

	orders, err := tr.CheckAndOrder(context.Background(), map[int64]item.Snapshot{
		1: {ItemID: 1, Quantity: 0, ReorderPoint: 1, ReorderQuantity: 5},
	})
	require.NoError(t, err)
	assert.Len(t, orders, 1)
	assert.Equal(t, 1, logs.FilterMessage("failed to publish replenishment orders").Len())
}
