package accounts

import (
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// TextCodeInvalidCredentials flags a failed credential check
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	// TextCodeAccountDisabled flags a disabled account
	TextCodeAccountDisabled = "ACCOUNT_DISABLED"
	// TextCodeTokenExpired flags an expired JWT
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed flags a structurally invalid JWT
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeTokenRevoked flags a blacklisted or cut-off refresh token
	TextCodeTokenRevoked = "TOKEN_REVOKED"
)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode("IDENTITY_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// ErrMismatchedHashAndPassword is returned for unknown identifiers and for
// wrong passwords alike, so callers cannot tell the two cases apart.
var ErrMismatchedHashAndPassword = goerrors.New("identity not found or invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountDisabled is returned when credentials verify but the account
// has been deactivated.
var ErrAccountDisabled = goerrors.New("account disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoEmptyString rejects empty passwords before they reach bcrypt
var ErrNoEmptyString = goerrors.New("value must not be an empty string", goerrors.CategoryBadInput).
	WithCode(goerrors.CodeBadRequest)

// ErrTokenExpired is the error for expired JWTs
var ErrTokenExpired = goerrors.New("authentication token expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenMalformed is the error for tokens that fail to parse or verify
var ErrTokenMalformed = goerrors.New("invalid authentication token", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenRevoked is the error for refresh tokens that were blacklisted or
// issued before the account's last password change.
var ErrTokenRevoked = goerrors.New("authentication token revoked", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(goerrors.CodeUnauthorized)

// ErrUnableToMapClaims unable to get claims from token
var ErrUnableToMapClaims = goerrors.New("unable to map claims", goerrors.CategoryAuth).
	WithCode(goerrors.CodeUnauthorized)

// ValidationError builds a field-scoped, client-fixable error.
func ValidationError(field, reason string) *goerrors.Error {
	return goerrors.New(reason, goerrors.CategoryValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"field": field})
}

// ValidationField extracts the offending field from a validation error,
// empty when the error carries no field metadata.
func ValidationField(err error) string {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return ""
	}
	if richErr.Metadata == nil {
		return ""
	}
	if field, ok := richErr.Metadata["field"].(string); ok {
		return field
	}
	return ""
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is expired") ||
		strings.Contains(err.Error(), "token expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}

// IsUniqueViolation reports whether the store rejected a write because of a
// unique constraint. Matches both the sqlite and postgres driver messages.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}

// UniqueViolationField maps a unique constraint failure to the conflicting
// column, defaulting to empty when the driver message names no column.
func UniqueViolationField(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, field := range []string{"email", "username"} {
		if strings.Contains(msg, "users."+field) || strings.Contains(msg, "users_"+field) {
			return field
		}
	}
	return ""
}
