package request

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"github.com/georgemunganga/stockroom/internal/modules/replenishment"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/georgemunganga/stockroom/internal/modules/request")

// ReplenishmentTrigger is notified with the post-reservation state of every
// item a reservation touched.
type ReplenishmentTrigger interface {
	CheckAndOrder(ctx context.Context, snapshots map[int64]item.Snapshot) ([]*replenishment.Order, error)
}

// EngineConfig wires an Engine. Logger and Trigger may be nil.
type EngineConfig struct {
	Items    item.Repository
	Ledger   item.Ledger
	Requests Repository
	Trigger  ReplenishmentTrigger
	Logger   *zap.Logger
	// OperationTimeout bounds each ledger call. Zero leaves the caller's
	// deadline in charge.
	OperationTimeout time.Duration
}

// Engine reserves stock for new requests and restocks canceled ones.
type Engine struct {
	items    item.Repository
	ledger   item.Ledger
	requests Repository
	trigger  ReplenishmentTrigger
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time
}

func NewEngine(cfg EngineConfig) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		items:    cfg.Items,
		ledger:   cfg.Ledger,
		requests: cfg.Requests,
		trigger:  cfg.Trigger,
		logger:   logger,
		timeout:  cfg.OperationTimeout,
		now:      time.Now,
	}
}

func (e *Engine) batchAdjust(ctx context.Context, adjustments []item.Adjustment) ([]item.Snapshot, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}
	return e.ledger.BatchAdjust(ctx, adjustments)
}

// Reserve validates the lines, decrements stock for all of them atomically,
// records the request and hands the new stock levels to the replenishment
// trigger. Nothing is mutated when it fails.
func (e *Engine) Reserve(ctx context.Context, in CreateRequest) (res *Reservation, err error) {
	ctx, span := tracer.Start(ctx, "request.reserve",
		trace.WithAttributes(attribute.Int("request.lines", len(in.Lines))))
	defer func() { endSpan(span, err) }()

	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}

	resolved := make(map[int64]*item.Item, len(in.Lines))
	for _, l := range in.Lines {
		it, err := e.items.GetByID(ctx, l.ItemID)
		if err != nil {
			return nil, err
		}
		resolved[l.ItemID] = it
	}

	adjustments := make([]item.Adjustment, len(in.Lines))
	for i, l := range in.Lines {
		adjustments[i] = item.Adjustment{ItemID: l.ItemID, Delta: -l.Quantity}
	}
	snaps, err := e.batchAdjust(ctx, adjustments)
	if err != nil {
		return nil, err
	}

	after := make(map[int64]item.Snapshot, len(snaps))
	for _, s := range snaps {
		after[s.ItemID] = s
	}

	now := e.now().UTC()
	req := &Request{
		From:         strings.TrimSpace(in.From),
		DateExpected: in.DateExpected,
		Status:       StatusPending,
		RequestDate:  now,
		Lines:        make([]*Line, 0, len(in.Lines)),
	}
	if req.DateExpected.IsZero() {
		req.DateExpected = now
	}
	for _, l := range in.Lines {
		view := *resolved[l.ItemID]
		view.Quantity = after[l.ItemID].Quantity
		req.Lines = append(req.Lines, &Line{ItemID: l.ItemID, Quantity: l.Quantity, Item: &view})
	}

	if err := e.requests.Create(ctx, req); err != nil {
		e.compensate(ctx, adjustments, err)
		return nil, err
	}
	span.SetAttributes(attribute.Int64("request.id", req.ID))
	e.logger.Info("stock reserved",
		zap.Int64("request_id", req.ID),
		zap.String("from", req.From),
		zap.Int("lines", len(req.Lines)))

	res = &Reservation{Request: req}
	if e.trigger != nil {
		orders, err := e.trigger.CheckAndOrder(ctx, after)
		if err != nil {
			e.logger.Warn("replenishment failed after reservation",
				zap.Int64("request_id", req.ID), zap.Error(err))
			res.Warnings = append(res.Warnings, "replenishment orders could not be placed: "+apperr.Message(err))
		}
		res.Orders = orders
	}
	return res, nil
}

// compensate returns reserved stock after the request could not be stored.
// It runs even when ctx is already canceled.
func (e *Engine) compensate(ctx context.Context, reserved []item.Adjustment, cause error) {
	restock := make([]item.Adjustment, len(reserved))
	for i, a := range reserved {
		restock[i] = item.Adjustment{ItemID: a.ItemID, Delta: -a.Delta}
	}
	if _, err := e.ledger.BatchAdjust(context.WithoutCancel(ctx), restock); err != nil {
		e.logger.Error("failed to return stock after request could not be stored",
			zap.NamedError("cause", cause),
			zap.Error(err),
			zap.Any("adjustments", restock))
		return
	}
	e.logger.Warn("reservation rolled back, request could not be stored", zap.Error(cause))
}

// Reverse restocks every line of req in one batch. Lines whose item has been
// deleted are skipped and reported.
func (e *Engine) Reverse(ctx context.Context, req *Request) (res *ReversalResult, err error) {
	ctx, span := tracer.Start(ctx, "request.reverse",
		trace.WithAttributes(attribute.Int64("request.id", req.ID)))
	defer func() { endSpan(span, err) }()

	pending := make([]item.Adjustment, 0, len(req.Lines))
	for _, l := range req.Lines {
		pending = append(pending, item.Adjustment{ItemID: l.ItemID, Delta: l.Quantity})
	}

	res = &ReversalResult{}
	for len(pending) > 0 {
		snaps, err := e.batchAdjust(ctx, pending)
		if err == nil {
			res.Restocked = snaps
			break
		}
		var missing *item.MissingItemError
		if !errors.As(err, &missing) {
			return nil, err
		}
		e.logger.Warn("skipping restock of deleted item",
			zap.Int64("request_id", req.ID), zap.Int64("item_id", missing.ItemID))
		res.Skipped = append(res.Skipped, missing.ItemID)
		pending = without(pending, missing.ItemID)
	}

	e.logger.Info("stock returned",
		zap.Int64("request_id", req.ID),
		zap.Int("restocked", len(res.Restocked)),
		zap.Int64s("skipped", res.Skipped))
	return res, nil
}

func without(adjustments []item.Adjustment, itemID int64) []item.Adjustment {
	out := adjustments[:0:0]
	for _, a := range adjustments {
		if a.ItemID != itemID {
			out = append(out, a)
		}
	}
	return out
}

func validateLines(lines []LineRequest) error {
	if len(lines) == 0 {
		return apperr.New("request.Reserve", apperr.KindValidation, "a request needs at least one line")
	}
	seen := make(map[int64]struct{}, len(lines))
	for i, l := range lines {
		if l.ItemID <= 0 {
			return apperr.Newf("request.Reserve", apperr.KindValidation, "line %d: itemId must be positive", i+1)
		}
		if l.Quantity <= 0 || l.Quantity > item.MaxQuantity {
			return apperr.Newf("request.Reserve", apperr.KindValidation, "line %d: quantity must be between 1 and %d", i+1, item.MaxQuantity)
		}
		if _, dup := seen[l.ItemID]; dup {
			return apperr.Newf("request.Reserve", apperr.KindValidation, "item %d appears more than once", l.ItemID)
		}
		seen[l.ItemID] = struct{}{}
	}
	return nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.KindOf(err)))
	}
	span.End()
}
