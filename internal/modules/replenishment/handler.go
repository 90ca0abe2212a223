package replenishment

import (
	"net/http"
	"strconv"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/georgemunganga/stockroom/internal/platform/httpx"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler exposes replenishment order HTTP endpoints.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/v1/orders", h.list)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var itemID int64
	if raw := r.URL.Query().Get("itemId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httpx.Fail(w, h.logger, apperr.Newf("orders.list", apperr.KindValidation, "invalid itemId %q", raw))
			return
		}
		itemID = id
	}
	orders, err := h.service.List(r.Context(), itemID)
	if err != nil {
		httpx.Fail(w, h.logger, err)
		return
	}
	if orders == nil {
		orders = []*Order{}
	}
	httpx.OK(w, http.StatusOK, "Retrieved replenishment orders", orders)
}
