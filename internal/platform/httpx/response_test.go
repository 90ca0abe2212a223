package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFailClassifiedError(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, zap.NewNop(), apperr.New("request.ChangeStatus", apperr.KindInvalidTransition, "cannot change request 1 from Canceled to Canceled"))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "InvalidTransition", body["kind"])
	assert.Equal(t, "cannot change request 1 from Canceled to Canceled", body["message"])
	assert.Equal(t, false, body["stateChanged"])
}

func TestFailInternalHidesDetails(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	rec := httptest.NewRecorder()
	Fail(rec, zap.New(core), errors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "internal error", body["message"])
	assert.NotContains(t, body, "stateChanged")
	assert.Equal(t, 1, logs.Len())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(apperr.KindValidation))
	assert.Equal(t, http.StatusNotFound, StatusFor(apperr.KindNotFound))
	assert.Equal(t, http.StatusConflict, StatusFor(apperr.KindConflict))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(apperr.KindInsufficientStock))
	assert.Equal(t, http.StatusBadGateway, StatusFor(apperr.KindDownstream))
	assert.Equal(t, http.StatusGatewayTimeout, StatusFor(apperr.KindTimeout))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("Unknown"))
}

func TestOKCarriesWarnings(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, http.StatusCreated, "Successfully created request", map[string]int{"id": 1}, "replenishment delayed")

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, []any{"replenishment delayed"}, body["warnings"])
}

func TestDecodeJSON(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	err := DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader("")), &v)
	assert.Equal(t, "request body is required", apperr.Message(err))

	err = DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nmae":"x"}`)), &v)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	require.NoError(t, DecodeJSON(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x"}`)), &v))
	assert.Equal(t, "x", v.Name)
}

func TestIDParamAndRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(zap.New(core)))
	r.Get("/things/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, err := IDParam(r, "id")
		if err != nil {
			Fail(w, nil, err)
			return
		}
		OK(w, http.StatusOK, "found", id)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/12", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(12), decode(t, rec)["data"])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/things/-3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[1]
	assert.Equal(t, "http request", entry.Message)
	assert.Equal(t, int64(http.StatusBadRequest), entry.ContextMap()["status"])
	assert.NotEmpty(t, entry.ContextMap()["request_id"])
}
