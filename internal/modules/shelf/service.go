package shelf

import (
	"context"
	"strings"

	"github.com/georgemunganga/stockroom/internal/apperr"
)

// Service defines shelf business logic.
type Service interface {
	Create(ctx context.Context, req SaveShelfRequest) (*Shelf, error)
	Get(ctx context.Context, id int64) (*Shelf, error)
	List(ctx context.Context) ([]*Shelf, error)
	Update(ctx context.Context, id int64, req SaveShelfRequest) (*Shelf, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ repo Repository }

// NewService creates a new shelf service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, req SaveShelfRequest) (*Shelf, error) {
	ref, err := validateReference(req.ReferenceNumber)
	if err != nil {
		return nil, err
	}
	sh := &Shelf{ReferenceNumber: ref}
	if err := s.repo.Create(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Shelf, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]*Shelf, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id int64, req SaveShelfRequest) (*Shelf, error) {
	ref, err := validateReference(req.ReferenceNumber)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &Shelf{ID: id, ReferenceNumber: ref}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Reference numbers are stored upper-case so "a-01" and "A-01" collide.
func validateReference(raw string) (string, error) {
	ref := strings.ToUpper(strings.TrimSpace(raw))
	if ref == "" {
		return "", apperr.New("shelf.validate", apperr.KindValidation, "referenceNumber is required")
	}
	if len(ref) > maxReferenceLength {
		return "", apperr.Newf("shelf.validate", apperr.KindValidation, "referenceNumber must be at most %d characters", maxReferenceLength)
	}
	return ref, nil
}
