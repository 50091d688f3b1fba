package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	t.Run("without cause", func(t *testing.T) {
		err := NewForbiddenError("reservation has already started")
		assert.Equal(t, "FORBIDDEN: reservation has already started", err.Error())
	})

	t.Run("with cause", func(t *testing.T) {
		cause := errors.New("connection reset")
		err := NewInternalError("failed to list reservations", cause)
		assert.Equal(t, "INTERNAL: failed to list reservations: connection reset", err.Error())
		assert.ErrorIs(t, err, cause)
	})
}

func TestIsType(t *testing.T) {
	wrapped := fmt.Errorf("load team: %w", NewNotFoundError("team not found"))

	assert.True(t, IsType(wrapped, ErrorTypeNotFound))
	assert.False(t, IsType(wrapped, ErrorTypeConflict))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeNotFound))
	assert.False(t, IsType(nil, ErrorTypeNotFound))

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "team not found", appErr.Message)
}
