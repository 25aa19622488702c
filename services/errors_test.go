package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainErrorMatching(t *testing.T) {
	t.Run("sentinel matches itself", func(t *testing.T) {
		assert.ErrorIs(t, ErrUserNotFound, ErrUserNotFound)
	})

	t.Run("sentinels of the same type do not cross-match", func(t *testing.T) {
		assert.NotErrorIs(t, ErrUserNotFound, ErrDocumentNotFound)
		assert.NotErrorIs(t, ErrInvalidCredentials, ErrInvalidToken)
	})

	t.Run("wrapped domain error still matches", func(t *testing.T) {
		wrapped := fmt.Errorf("handler: %w", ErrForbidden)
		assert.ErrorIs(t, wrapped, ErrForbidden)
	})

	t.Run("plain errors never match", func(t *testing.T) {
		assert.NotErrorIs(t, errors.New("boom"), ErrInternal)
	})
}

func TestErrorTypeHelpers(t *testing.T) {
	cases := []struct {
		err     error
		helper  func(error) bool
		matches bool
	}{
		{ErrUserNotFound, IsNotFoundError, true},
		{ErrDocumentNotFound, IsNotFoundError, true},
		{ErrInvalidInput, IsValidationError, true},
		{ErrInvalidToken, IsUnauthenticatedError, true},
		{ErrInvalidCredentials, IsUnauthenticatedError, true},
		{ErrForbidden, IsForbiddenError, true},
		{ErrNotDocumentOwner, IsForbiddenError, true},
		{ErrUserExists, IsConflictError, true},
		{ErrUserNotFound, IsForbiddenError, false},
		{ErrForbidden, IsNotFoundError, false},
		{errors.New("plain"), IsInternalError, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.matches, tc.helper(tc.err), "error %v", tc.err)
	}
}

func TestWrapInternal(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapInternal("query failed", cause)

	assert.True(t, IsInternalError(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "query failed")
}

func TestWithDetail(t *testing.T) {
	err := NewDomainError(ErrorTypeValidation, "bad field", nil).
		WithDetail("field", "username")

	details := GetErrorDetails(err)
	assert.Equal(t, "username", details["field"])
}
