package replenishment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/georgemunganga/stockroom/internal/modules/replenishment")

// Trigger places replenishment orders for items that an adjustment left
// below their reorder point.
type Trigger struct {
	repo      Repository
	publisher Publisher
	policy    Policy
	logger    *zap.Logger
	now       func() time.Time
}

// NewTrigger builds a Trigger. A nil publisher disables publishing and a nil
// logger discards output.
func NewTrigger(repo Repository, publisher Publisher, policy Policy, logger *zap.Logger) *Trigger {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trigger{
		repo:      repo,
		publisher: publisher,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// CheckAndOrder creates one order per snapshot whose quantity is below its
// reorder point. It works only from the snapshots it is given and never
// re-reads stock. Orders are returned sorted by item id.
func (t *Trigger) CheckAndOrder(ctx context.Context, snapshots map[int64]item.Snapshot) ([]*Order, error) {
	ctx, span := tracer.Start(ctx, "replenishment.check_and_order")
	defer span.End()

	ids := make([]int64, 0, len(snapshots))
	for id := range snapshots {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	now := t.now().UTC()
	var orders []*Order
	for _, id := range ids {
		snap := snapshots[id]
		if !snap.BelowReorderPoint() {
			continue
		}
		orders = append(orders, &Order{
			Reference:       newReference(now),
			ItemID:          id,
			Supplier:        t.policy.DefaultSupplier,
			Quantity:        snap.ReorderQuantity,
			OrderDate:       now,
			ExpectedArrival: now.AddDate(0, 0, t.policy.LeadTimeDays),
		})
	}
	span.SetAttributes(attribute.Int("replenishment.orders", len(orders)))
	if len(orders) == 0 {
		return nil, nil
	}

	if err := t.repo.CreateOrders(ctx, orders); err != nil {
		span.RecordError(err)
		return nil, &apperr.Error{
			Op:      "replenishment.CheckAndOrder",
			Kind:    apperr.KindDownstream,
			Message: "failed to record replenishment orders",
			Err:     err,
		}
	}

	for _, o := range orders {
		t.logger.Info("replenishment order placed",
			zap.String("reference", o.Reference),
			zap.Int64("item_id", o.ItemID),
			zap.Int("quantity", o.Quantity),
			zap.String("supplier", o.Supplier),
			zap.Time("expected_arrival", o.ExpectedArrival))
	}

	if err := t.publisher.Publish(ctx, orders); err != nil {
		t.logger.Warn("failed to publish replenishment orders", zap.Error(err), zap.Int("orders", len(orders)))
	}
	return orders, nil
}

// newReference returns a human-readable order reference such as
// RPL-20240131-9F2C61AB.
func newReference(at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("RPL-%s-%s", at.Format("20060102"), suffix)
}
