// Package apperr defines the error taxonomy shared by every module.
// Errors carry a Kind so that the transport layer can translate them into a
// uniform result envelope without inspecting messages.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind string

const (
	KindNotFound          Kind = "NotFound"
	KindValidation        Kind = "Validation"
	KindInsufficientStock Kind = "InsufficientStock"
	KindConflict          Kind = "Conflict"
	KindTimeout           Kind = "Timeout"
	KindInvalidTransition Kind = "InvalidTransition"
	KindDownstream        Kind = "DownstreamFailure"
	KindInternal          Kind = "Internal"
)

// Sentinel errors for comparison using errors.Is().
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrConflict          = errors.New("concurrent modification conflict")
	ErrTimeout           = errors.New("operation timeout")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrDownstream        = errors.New("downstream failure")
)

var sentinels = map[Kind]error{
	KindNotFound:          ErrNotFound,
	KindValidation:        ErrValidation,
	KindInsufficientStock: ErrInsufficientStock,
	KindConflict:          ErrConflict,
	KindTimeout:           ErrTimeout,
	KindInvalidTransition: ErrInvalidTransition,
	KindDownstream:        ErrDownstream,
}

// classification order matters: a timeout wrapping a conflict is reported as a timeout.
var precedence = []Kind{
	KindTimeout,
	KindInsufficientStock,
	KindInvalidTransition,
	KindValidation,
	KindNotFound,
	KindConflict,
	KindDownstream,
}

// Error provides structured error information with context.
type Error struct {
	Op      string // operation that failed, e.g. "request.Reserve"
	Kind    Kind
	Message string // human-readable message
	Err     error  // underlying error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	case e.Message != "":
		return e.Message
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// New creates an error of the given kind.
func New(op string, kind Kind, msg string) *Error {
	return &Error{Op: op, Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(op string, kind Kind, format string, args ...any) *Error {
	return &Error{Op: op, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and operation to err. A nil err yields nil.
func Wrap(op string, kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf reports the kind of err. An outermost *Error of kind Internal wins
// over anything it wraps. Context cancellation and deadlines are timeouts;
// anything unclassified is Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Kind == KindInternal {
		return KindInternal
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return KindTimeout
	}
	for _, k := range precedence {
		if errors.Is(err, sentinels[k]) {
			return k
		}
	}
	return KindInternal
}

// Message returns the message to show a caller. Internal failures get a
// generic text so driver details do not leak.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if KindOf(err) == KindInternal {
		return "internal error"
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return err.Error()
}

// Is reports whether err is of the given kind.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }
