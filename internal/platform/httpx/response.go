// Package httpx holds the transport helpers shared by every module handler:
// the result envelope, error-to-status translation and request decoding.
package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/georgemunganga/stockroom/internal/apperr"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Envelope is the uniform body of every response.
type Envelope struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	Error        string      `json:"error,omitempty"`
	Kind         apperr.Kind `json:"kind,omitempty"`
	StateChanged *bool       `json:"stateChanged,omitempty"`
	Warnings     []string    `json:"warnings,omitempty"`
	Data         any         `json:"data,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindValidation:        http.StatusBadRequest,
	apperr.KindNotFound:          http.StatusNotFound,
	apperr.KindConflict:          http.StatusConflict,
	apperr.KindInsufficientStock: http.StatusUnprocessableEntity,
	apperr.KindInvalidTransition: http.StatusUnprocessableEntity,
	apperr.KindDownstream:        http.StatusBadGateway,
	apperr.KindTimeout:           http.StatusGatewayTimeout,
	apperr.KindInternal:          http.StatusInternalServerError,
}

// StatusFor maps an error kind to an HTTP status code.
func StatusFor(kind apperr.Kind) int {
	if code, ok := statusByKind[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func Respond(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// OK writes a successful envelope.
func OK(w http.ResponseWriter, status int, message string, data any, warnings ...string) {
	Respond(w, status, Envelope{
		Success:  true,
		Message:  message,
		Data:     data,
		Warnings: warnings,
	})
}

// Fail translates err into a failure envelope. Classified failures are known
// to have happened before any state change; internal ones make no promise.
func Fail(w http.ResponseWriter, logger *zap.Logger, err error) {
	kind := apperr.KindOf(err)
	env := Envelope{
		Success: false,
		Error:   string(kind),
		Kind:    kind,
		Message: apperr.Message(err),
	}
	if kind != apperr.KindInternal {
		changed := false
		env.StateChanged = &changed
	}
	if logger != nil {
		if kind == apperr.KindInternal {
			logger.Error("request failed", zap.Error(err))
		} else {
			logger.Debug("request rejected", zap.String("kind", string(kind)), zap.Error(err))
		}
	}
	Respond(w, StatusFor(kind), env)
}

// DecodeJSON decodes the request body into v, rejecting unknown fields.
func DecodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.New("decode", apperr.KindValidation, "request body is required")
		}
		return apperr.Newf("decode", apperr.KindValidation, "invalid request body: %v", err)
	}
	return nil
}

// IDParam parses a positive integer URL parameter.
func IDParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.New("decode", apperr.KindValidation, fmt.Sprintf("invalid %s %q", name, raw))
	}
	return id, nil
}
