package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsType(t *testing.T) {
	conflict := NewConflictError("slot already booked", errors.New("409"))
	wrapped := fmt.Errorf("confirm booking: %w", conflict)

	assert.True(t, IsType(wrapped, ErrorTypeConflict))
	assert.False(t, IsType(wrapped, ErrorTypeExternal))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeConflict))
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: session not found", NewNotFoundError("session not found").Error())
	assert.Equal(t, "EXTERNAL: scheduler down: boom", NewExternalError("scheduler down", errors.New("boom")).Error())
}
