package request

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/item"
	"go.uber.org/zap"
)

// Service defines request business logic.
type Service interface {
	Reserve(ctx context.Context, req CreateRequest) (*Reservation, error)
	Get(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context) ([]*Request, error)
	ChangeStatus(ctx context.Context, id int64, token string) (*Request, error)
}

// validTransitions defines the allowed status state machine.
var validTransitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusCanceled},
	StatusApproved: {StatusCanceled},
	StatusCanceled: {},
}

// CanTransition reports whether a request may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type service struct {
	repo   Repository
	items  item.Repository
	engine *Engine
	logger *zap.Logger
}

// NewService creates a new request service.
func NewService(repo Repository, items item.Repository, engine *Engine, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{repo: repo, items: items, engine: engine, logger: logger}
}

func (s *service) Reserve(ctx context.Context, req CreateRequest) (*Reservation, error) {
	return s.engine.Reserve(ctx, req)
}

func (s *service) Get(ctx context.Context, id int64) (*Request, error) {
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *service) List(ctx context.Context) ([]*Request, error) {
	reqs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, req := range reqs {
		if err := s.attachItems(ctx, req); err != nil {
			return nil, err
		}
	}
	return reqs, nil
}

// ChangeStatus applies a status transition. Canceling claims the new status
// first and then returns the stock, so two concurrent cancels cannot both
// restock. If restocking fails the previous status is put back.
func (s *service) ChangeStatus(ctx context.Context, id int64, token string) (*Request, error) {
	to, err := ParseStatus(token)
	if err != nil {
		return nil, err
	}
	req, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	from := req.Status
	if !CanTransition(from, to) {
		return nil, apperr.Newf("request.ChangeStatus", apperr.KindInvalidTransition,
			"cannot change request %d from %s to %s", id, from, to)
	}

	ok, err := s.repo.CompareAndSetStatus(ctx, id, from, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Newf("request.ChangeStatus", apperr.KindConflict,
			"request %d was modified concurrently, reload and try again", id)
	}

	if to == StatusCanceled {
		if _, err := s.engine.Reverse(ctx, req); err != nil {
			if rerr := s.restoreStatus(ctx, id, to, from); rerr != nil {
				return nil, &apperr.Error{
					Op:      "request.ChangeStatus",
					Kind:    apperr.KindInternal,
					Message: fmt.Sprintf("request %d is canceled but its stock was not returned", id),
					Err:     errors.Join(err, rerr),
				}
			}
			return nil, err
		}
	}

	s.logger.Info("request status changed",
		zap.Int64("request_id", id),
		zap.String("from", string(from)),
		zap.String("to", string(to)))

	req.Status = to
	if err := s.attachItems(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// restoreStatus puts the previous status back after a failed restock. An
// error means the request is left in current with its stock still reserved.
func (s *service) restoreStatus(ctx context.Context, id int64, current, previous Status) error {
	ok, err := s.repo.CompareAndSetStatus(context.WithoutCancel(ctx), id, current, previous)
	if err == nil && !ok {
		err = fmt.Errorf("request %d left status %s during rollback", id, current)
	}
	if err != nil {
		s.logger.Error("failed to restore request status after restock failure",
			zap.Int64("request_id", id),
			zap.String("status", string(current)),
			zap.Error(err))
		return fmt.Errorf("restore status of request %d: %w", id, err)
	}
	return nil
}

// attachItems fills in the current item view of every line. Lines whose item
// has since been deleted keep a nil view.
func (s *service) attachItems(ctx context.Context, req *Request) error {
	for _, l := range req.Lines {
		it, err := s.items.GetByID(ctx, l.ItemID)
		switch {
		case errors.Is(err, apperr.ErrNotFound):
			continue
		case err != nil:
			return err
		}
		l.Item = it
	}
	return nil
}
