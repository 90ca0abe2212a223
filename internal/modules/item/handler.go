package item

import (
	"net/http"

	"github.com/georgemunganga/stockroom/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes item HTTP endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/items", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/low-stock", h.lowStock)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Patch("/{id}/stock", h.adjustStock)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req SaveItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	it, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Successfully added a new item", it)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if items == nil {
		items = []*Item{}
	}
	httpx.OK(w, http.StatusOK, "Retrieved items", items)
}

func (h *Handler) lowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListLowStock(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if items == nil {
		items = []*Item{}
	}
	httpx.OK(w, http.StatusOK, "Retrieved items below their reorder point", items)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	it, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Retrieved item", it)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	var req SaveItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	it, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Successfully updated item", it)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Successfully removed item", nil)
}

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	var req AdjustStockRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	level, err := h.service.AdjustStock(r.Context(), id, req.Delta)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	h.logger.Info("stock adjusted",
		zap.Int64("item_id", id),
		zap.Int("delta", req.Delta),
		zap.Int("quantity", level.Quantity))
	httpx.OK(w, http.StatusOK, "Stock updated", level)
}
