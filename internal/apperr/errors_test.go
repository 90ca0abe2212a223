package apperr

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"structured", New("op", KindNotFound, "missing"), KindNotFound},
		{"wrapped structured", fmt.Errorf("outer: %w", New("op", KindConflict, "busy")), KindConflict},
		{"sentinel", fmt.Errorf("x: %w", ErrInvalidTransition), KindInvalidTransition},
		{"deadline", fmt.Errorf("x: %w", context.DeadlineExceeded), KindTimeout},
		{"canceled", context.Canceled, KindTimeout},
		{"timeout beats conflict", Wrap("op", KindConflict, context.DeadlineExceeded), KindTimeout},
		{"plain", errors.New("boom"), KindInternal},
		{"internal wraps classified", Wrap("op", KindInternal, errors.Join(ErrTimeout, context.DeadlineExceeded)), KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrorIsAndUnwrap(t *testing.T) {
	cause := errors.New("driver said no")
	err := Wrap("item.BatchAdjust", KindDownstream, cause)

	assert.ErrorIs(t, err, ErrDownstream)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "item.BatchAdjust: driver said no", err.Error())
	assert.Nil(t, Wrap("op", KindInternal, nil))
}

func TestMessageHidesInternalDetails(t *testing.T) {
	assert.Equal(t, "internal error", Message(errors.New("pq: connection refused")))
	assert.Equal(t, "request 7 not found", Message(Newf("request.Get", KindNotFound, "request %d not found", 7)))
}
