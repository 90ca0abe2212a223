package item

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/modules/category"
	"github.com/georgemunganga/stockroom/internal/modules/shelf"
)

// Service defines item business logic.
type Service interface {
	Create(ctx context.Context, req SaveItemRequest) (*Item, error)
	Get(ctx context.Context, id int64) (*Item, error)
	List(ctx context.Context) ([]*Item, error)
	ListLowStock(ctx context.Context) ([]*Item, error)
	Update(ctx context.Context, id int64, req SaveItemRequest) (*Item, error)
	Delete(ctx context.Context, id int64) error
	AdjustStock(ctx context.Context, id int64, delta int) (*StockLevel, error)
}

type service struct {
	store      Store
	categories category.Repository
	shelves    shelf.Repository
}

// NewService creates a new item service.
func NewService(store Store, categories category.Repository, shelves shelf.Repository) Service {
	return &service{store: store, categories: categories, shelves: shelves}
}

func (s *service) Create(ctx context.Context, req SaveItemRequest) (*Item, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}
	if req.Quantity < 0 || req.Quantity > MaxQuantity {
		return nil, apperr.Newf("item.validate", apperr.KindValidation, "quantity must be between 0 and %d", MaxQuantity)
	}
	it := &Item{
		Name:            req.Name,
		Description:     req.Description,
		Quantity:        req.Quantity,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		CategoryID:      req.CategoryID,
		ShelfID:         req.ShelfID,
	}
	if err := s.store.Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Get(ctx context.Context, id int64) (*Item, error) {
	return s.store.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context) ([]*Item, error) {
	return s.store.List(ctx)
}

func (s *service) ListLowStock(ctx context.Context) ([]*Item, error) {
	return s.store.ListLowStock(ctx)
}

func (s *service) Update(ctx context.Context, id int64, req SaveItemRequest) (*Item, error) {
	if err := s.validate(ctx, &req); err != nil {
		return nil, err
	}
	it := &Item{
		ID:              id,
		Name:            req.Name,
		Description:     req.Description,
		ReorderPoint:    req.ReorderPoint,
		ReorderQuantity: req.ReorderQuantity,
		CategoryID:      req.CategoryID,
		ShelfID:         req.ShelfID,
	}
	if err := s.store.Update(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func (s *service) AdjustStock(ctx context.Context, id int64, delta int) (*StockLevel, error) {
	switch {
	case delta == 0:
		return nil, apperr.New("item.AdjustStock", apperr.KindValidation, "delta must not be zero")
	case delta > MaxQuantity || delta < -MaxQuantity:
		return nil, apperr.Newf("item.AdjustStock", apperr.KindValidation, "delta must be within ±%d", MaxQuantity)
	}
	qty, err := s.store.TryAdjust(ctx, id, delta)
	if err != nil {
		return nil, err
	}
	return &StockLevel{ItemID: id, Quantity: qty}, nil
}

// validate normalizes req and checks that its category and shelf exist.
func (s *service) validate(ctx context.Context, req *SaveItemRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	switch {
	case req.Name == "":
		return apperr.New("item.validate", apperr.KindValidation, "name is required")
	case utf8.RuneCountInString(req.Name) > maxNameLength:
		return apperr.Newf("item.validate", apperr.KindValidation, "name must be at most %d characters", maxNameLength)
	case req.ReorderPoint < 0 || req.ReorderQuantity < 0:
		return apperr.New("item.validate", apperr.KindValidation, "reorderPoint and reorderQuantity must not be negative")
	case req.ReorderPoint > MaxQuantity || req.ReorderQuantity > MaxQuantity:
		return apperr.Newf("item.validate", apperr.KindValidation, "reorderPoint and reorderQuantity must be at most %d", MaxQuantity)
	case req.CategoryID <= 0:
		return apperr.New("item.validate", apperr.KindValidation, "categoryId is required")
	case req.ShelfID <= 0:
		return apperr.New("item.validate", apperr.KindValidation, "shelfId is required")
	}
	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		return err
	}
	if _, err := s.shelves.GetByID(ctx, req.ShelfID); err != nil {
		return err
	}
	return nil
}
