package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorConstants(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"ErrInvalidArgument", ErrInvalidArgument, "invalid argument"},
		{"ErrNotFound", ErrNotFound, "not found"},
		{"ErrRateLimited", ErrRateLimited, "rate limited"},
		{"ErrEngineNotInitialized", ErrEngineNotInitialized, "engine not initialized"},
		{"ErrMalformedPosting", ErrMalformedPosting, "malformed posting"},
		{"ErrInternal", ErrInternal, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	wrapped := fmt.Errorf("op=usecase.Recommend: %w", ErrEngineNotInitialized)
	assert.True(t, errors.Is(wrapped, ErrEngineNotInitialized))
	assert.False(t, errors.Is(wrapped, ErrInvalidArgument))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"skills": "required", "education_level": "unknown education level"}}
	assert.Equal(t, "invalid argument: education_level: unknown education level; skills: required", err.Error())
	assert.ErrorIs(t, err, ErrInvalidArgument)

	var verr *ValidationError
	wrapped := fmt.Errorf("op=x: %w", NewValidationError("top_n", "must be <= 50"))
	assert.True(t, errors.As(wrapped, &verr))
	assert.Equal(t, map[string]string{"top_n": "must be <= 50"}, verr.Fields)

	assert.Equal(t, "invalid argument", (&ValidationError{}).Error())
}
