package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorFormatting(t *testing.T) {
	err := NewAppError(ErrCodeStorageWrite, "Failed to create log entry", "disk full")
	assert.Equal(t, "STORAGE_WRITE_ERROR: Failed to create log entry (disk full)", err.Error())

	bare := NewAppError(ErrCodeNotFound, "Log entry not found")
	assert.Equal(t, "NOT_FOUND: Log entry not found", bare.Error())
	assert.NotEmpty(t, bare.File)
	assert.NotZero(t, bare.Line)
}

func TestHasCode(t *testing.T) {
	cause := errors.New("permission denied")
	inner := WrapAppError(ErrCodeLocationUnavailable, "Location unavailable", cause)
	outer := WrapAppError(ErrCodeStorageWrite, "Failed to record activity", inner)
	wrapped := fmt.Errorf("record: %w", outer)

	assert.True(t, HasCode(wrapped, ErrCodeStorageWrite))
	assert.True(t, HasCode(wrapped, ErrCodeLocationUnavailable))
	assert.False(t, HasCode(wrapped, ErrCodeMigration))
	assert.True(t, errors.Is(wrapped, cause))

	assert.False(t, HasCode(nil, ErrCodeStorageRead))
	assert.False(t, HasCode(cause, ErrCodeStorageRead))
}
