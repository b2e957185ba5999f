package domainerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesByKind(t *testing.T) {
	err := NotFoundf("book %d not found", 42)

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "book 42 not found", err.Error())
}

func TestError_IsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("activate: %w", Conflictf("already reviewed"))

	assert.True(t, errors.Is(wrapped, ErrConflict))
	assert.Equal(t, KindConflict, KindOf(wrapped))
}

func TestInternal_KeepsCause(t *testing.T) {
	cause := errors.New("disk I/O error")
	err := Internal(cause, "failed to delete book")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "failed to delete book: disk I/O error", err.Error())
	assert.True(t, errors.Is(err, ErrInternal))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKind_HTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindInvalidInput, http.StatusBadRequest},
		{KindPermissionDenied, http.StatusForbidden},
		{KindUnauthorized, http.StatusUnauthorized},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.HTTPStatus())
		})
	}
}

func TestWithDetails(t *testing.T) {
	base := InvalidInputf("validation failed")
	detailed := base.WithDetails(map[string]string{"title": "is required"})

	assert.Nil(t, base.Details)
	assert.Equal(t, map[string]string{"title": "is required"}, detailed.Details)
	assert.Equal(t, KindInvalidInput, detailed.Kind)
}
