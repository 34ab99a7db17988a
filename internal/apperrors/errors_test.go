package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("Typed Error", func(t *testing.T) {
		err := Conflict("seat %s is not available", "12B")
		assert.Equal(t, KindConflict, KindOf(err))
		assert.Equal(t, "seat 12B is not available", MessageOf(err))
	})

	t.Run("Wrapped Error", func(t *testing.T) {
		err := fmt.Errorf("create booking: %w", NotFound("flight not found"))
		assert.Equal(t, KindNotFound, KindOf(err))
		assert.Equal(t, "flight not found", MessageOf(err))
	})

	t.Run("Untyped Error", func(t *testing.T) {
		err := errors.New("connection reset")
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Equal(t, "internal server error", MessageOf(err))
	})
}

func TestInternalUnwrap(t *testing.T) {
	cause := errors.New("pnr space exhausted")
	err := Internal("failed to generate PNR", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to generate PNR")
	assert.Contains(t, err.Error(), "pnr space exhausted")
}
