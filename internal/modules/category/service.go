package category

import (
	"context"
	"strings"

	"github.com/georgemunganga/stockroom/internal/apperr"
)

// Service defines category business logic.
type Service interface {
	Create(ctx context.Context, req SaveCategoryRequest) (*Category, error)
	Get(ctx context.Context, id int64) (*Category, error)
	List(ctx context.Context) ([]*Category, error)
	Update(ctx context.Context, id int64, req SaveCategoryRequest) (*Category, error)
	Delete(ctx context.Context, id int64) error
}

type service struct{ repo Repository }

// NewService creates a new category service.
func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) Create(ctx context.Context, req SaveCategoryRequest) (*Category, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	c := &Category{Name: name}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]*Category, error) {
	return s.repo.List(ctx)
}

func (s *service) Update(ctx context.Context, id int64, req SaveCategoryRequest) (*Category, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &Category{ID: id, Name: name}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func validateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", apperr.New("category.validate", apperr.KindValidation, "name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return "", apperr.Newf("category.validate", apperr.KindValidation, "name must be at most %d characters", maxNameLength)
	}
	return name, nil
}
