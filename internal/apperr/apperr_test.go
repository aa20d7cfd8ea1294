package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", New(ErrValidation, "bad"), http.StatusBadRequest},
		{"not found", New(ErrNotFound, "missing"), http.StatusNotFound},
		{"conflict", New(ErrConflict, "out of stock"), http.StatusBadRequest},
		{"duplicate", New(ErrDuplicate, "taken"), http.StatusConflict},
		{"aborted", Aborted("concurrent update", errors.New("40001")), http.StatusInternalServerError},
		{"unauthorized", New(ErrUnauthorized, "who"), http.StatusUnauthorized},
		{"forbidden", New(ErrForbidden, "no"), http.StatusForbidden},
		{"timeout", Timeout("checkout"), http.StatusGatewayTimeout},
		{"storage", Storage("insert", errors.New("boom")), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("outer: %w", New(ErrNotFound, "x")), http.StatusNotFound},
		{"plain", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.err))
		})
	}
}

func TestStorage_DeadlineBecomesTimeout(t *testing.T) {
	err := Storage("select", fmt.Errorf("driver: %w", context.DeadlineExceeded))

	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsRetryable(err))
}

func TestStorage_NilCause(t *testing.T) {
	assert.NoError(t, Storage("noop", nil))
}

func TestSentinelMatchesBothItselfAndKind(t *testing.T) {
	errShopMissing := New(ErrNotFound, "shop not found")
	wrapped := fmt.Errorf("load: %w", errShopMissing)

	assert.ErrorIs(t, wrapped, errShopMissing)
	assert.ErrorIs(t, wrapped, ErrNotFound)
	assert.NotErrorIs(t, wrapped, ErrConflict)
}

func TestMessage_HidesInternals(t *testing.T) {
	assert.Equal(t, "internal server error", Message(Storage("insert", errors.New("pq: secret"))))
	assert.Equal(t, "cart is empty", Message(New(ErrValidation, "cart is empty")))
}

func TestAborted(t *testing.T) {
	err := Aborted("concurrent update, please retry", errors.New("pq: could not serialize access"))

	assert.ErrorIs(t, err, ErrStorage)
	assert.True(t, IsRetryable(err))
	assert.Equal(t, "concurrent update, please retry", Message(err))
	assert.False(t, IsRetryable(New(ErrDuplicate, "dup")))
}
