package accounts_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-accounts"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationError(t *testing.T) {
	err := accounts.ValidationError("email", "must be a valid address")

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
	assert.Equal(t, goerrors.CodeBadRequest, richErr.Code)
	assert.Equal(t, "must be a valid address", richErr.Message)
	assert.Equal(t, "email", accounts.ValidationField(err))
}

func TestValidationField(t *testing.T) {
	t.Run("no field metadata", func(t *testing.T) {
		err := goerrors.New("nope", goerrors.CategoryValidation)
		assert.Equal(t, "", accounts.ValidationField(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.Equal(t, "", accounts.ValidationField(errors.New("boom")))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", accounts.ValidationField(nil))
	})
}

func TestIsTokenExpiredError(t *testing.T) {
	assert.True(t, accounts.IsTokenExpiredError(errors.New("token is expired by 1h")))
	assert.True(t, accounts.IsTokenExpiredError(accounts.ErrTokenExpired))
	assert.False(t, accounts.IsTokenExpiredError(errors.New("something else")))
	assert.False(t, accounts.IsTokenExpiredError(nil))
}

func TestIsMalformedError(t *testing.T) {
	assert.True(t, accounts.IsMalformedError(errors.New("token is malformed")))
	assert.True(t, accounts.IsMalformedError(errors.New("missing or malformed JWT")))
	assert.False(t, accounts.IsMalformedError(errors.New("token is expired")))
	assert.False(t, accounts.IsMalformedError(nil))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, accounts.IsUniqueViolation(errors.New("UNIQUE constraint failed: users.email")))
	assert.True(t, accounts.IsUniqueViolation(errors.New(`duplicate key value violates unique constraint "uq_users_email"`)))
	assert.False(t, accounts.IsUniqueViolation(errors.New("syntax error")))
	assert.False(t, accounts.IsUniqueViolation(nil))
}

func TestUniqueViolationField(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "sqlite email",
			err:      errors.New("UNIQUE constraint failed: users.email"),
			expected: "email",
		},
		{
			name:     "sqlite username",
			err:      errors.New("UNIQUE constraint failed: users.username"),
			expected: "username",
		},
		{
			name:     "postgres email constraint",
			err:      errors.New(`duplicate key value violates unique constraint "uq_users_email"`),
			expected: "email",
		},
		{
			name:     "postgres username constraint",
			err:      errors.New(`duplicate key value violates unique constraint "uq_users_username"`),
			expected: "username",
		},
		{
			name:     "unrelated error",
			err:      errors.New("boom"),
			expected: "",
		},
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, accounts.UniqueViolationField(tt.err))
		})
	}
}
