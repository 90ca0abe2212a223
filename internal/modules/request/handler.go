package request

import (
	"net/http"

	"github.com/georgemunganga/stockroom/internal/modules/replenishment"
	"github.com/georgemunganga/stockroom/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes request HTTP endpoints.
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
	r.Route("/api/v1/requests", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/{id}", h.get)
		r.Patch("/{id}/status", h.changeStatus)
	})
}

// reservationResponse is the created request plus any orders it caused.
type reservationResponse struct {
	*Request
	ReplenishmentOrders []*replenishment.Order `json:"replenishmentOrders,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	res, err := h.service.Reserve(r.Context(), req)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "Successfully created request",
		reservationResponse{Request: res.Request, ReplenishmentOrders: res.Orders},
		res.Warnings...)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.service.List(r.Context())
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if reqs == nil {
		reqs = []*Request{}
	}
	httpx.OK(w, http.StatusOK, "Retrieved requests", reqs)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	req, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Retrieved request", req)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	var body ChangeStatusRequest
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	req, err := h.service.ChangeStatus(r.Context(), id, body.Status)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	httpx.OK(w, http.StatusOK, "Request status updated", req)
}
