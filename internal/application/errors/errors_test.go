package apperrors

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvalidArgumentError(t *testing.T) {
	err := NewInvalidArgumentError("rootPackage", "is required")
	assert.Equal(t, `invalid argument "rootPackage": is required`, err.Error())
}

func TestModuleNotFoundError(t *testing.T) {
	err := NewModuleNotFoundError("java.util.List")
	assert.Equal(t, "module not found: java.util.List", err.Error())

	wrapped := fmt.Errorf("resolve: %w", err)
	assert.True(t, IsModuleNotFound(wrapped))
	assert.False(t, IsModuleNotFound(io.EOF))
}

func TestIllegalStateError_Unwrap(t *testing.T) {
	err := NewIllegalStateError("com.app.Widget", "failed to read module bytes", io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "com.app.Widget")

	bare := NewIllegalStateError("com.app.Widget", "broken", nil)
	assert.Equal(t, "illegal state loading com.app.Widget: broken", bare.Error())
}

func TestDefinitionError_Unwrap(t *testing.T) {
	err := NewDefinitionError("com.app.Widget", ErrDuplicateDefinition)

	assert.True(t, errors.Is(err, ErrDuplicateDefinition))
	assert.Contains(t, err.Error(), "failed to define module com.app.Widget")
}

func TestConfigurationError(t *testing.T) {
	err := NewConfigurationError("sources", "unknown kind", io.EOF)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "configuration error (sources): unknown kind: EOF", err.Error())

	assert.Equal(t, "configuration error (sources): empty",
		NewConfigurationError("sources", "empty", nil).Error())
}
