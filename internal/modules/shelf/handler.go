package shelf

import (
	"net/http"

	"github.com/georgemunganga/stockroom/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes shelf HTTP endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/shelves", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req SaveShelfRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	sh, err := h.service.Create(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Successfully added a new shelf", sh)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	shelves, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if shelves == nil {
		shelves = []*Shelf{}
	}
	httpx.OK(w, http.StatusOK, "Retrieved shelves", shelves)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	sh, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Retrieved shelf", sh)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	var req SaveShelfRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	sh, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Successfully updated shelf", sh)
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
	httpx.OK(w, http.StatusOK, "Successfully removed shelf", nil)
}
