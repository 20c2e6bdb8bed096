package accounts

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionObjectGetters(t *testing.T) {
	now := time.Now()
	session := &SessionObject{
		UserID:   "c3cbc6c5-7ab0-426b-9e1d-f17c4be09f54",
		Audience: []string{"test-audience"},
		Issuer:   "test-issuer",
		IssuedAt: &now,
		Data:     map[string]any{"token_use": TokenUseRefresh},
	}

	assert.Equal(t, "c3cbc6c5-7ab0-426b-9e1d-f17c4be09f54", session.GetUserID())
	assert.Equal(t, []string{"test-audience"}, session.GetAudience())
	assert.Equal(t, "test-issuer", session.GetIssuer())
	assert.Equal(t, &now, session.GetIssuedAt())
	assert.Equal(t, TokenUseRefresh, session.GetData()["token_use"])

	id, err := session.GetUserUUID()
	require.NoError(t, err)
	assert.Equal(t, "c3cbc6c5-7ab0-426b-9e1d-f17c4be09f54", id.String())
}

func TestSessionObjectGetUserUUIDInvalid(t *testing.T) {
	session := &SessionObject{UserID: "not-a-uuid"}
	_, err := session.GetUserUUID()
	assert.Error(t, err)
}

func TestHasUserUUID(t *testing.T) {
	assert.False(t, HasUserUUID(nil))
	assert.False(t, HasUserUUID(&SessionObject{UserID: "nope"}))
	assert.True(t, HasUserUUID(&SessionObject{UserID: "c3cbc6c5-7ab0-426b-9e1d-f17c4be09f54"}))
}

func TestSessionObjectString(t *testing.T) {
	issuedAt := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	session := SessionObject{
		UserID:   "abc",
		Audience: []string{"aud"},
		Issuer:   "iss",
		IssuedAt: &issuedAt,
	}

	out := session.String()
	assert.Contains(t, out, "user=abc")
	assert.Contains(t, out, "iss=iss")
	assert.Contains(t, out, issuedAt.Format(time.RFC1123))

	empty := SessionObject{}
	assert.Contains(t, empty.String(), "iat=<nil>")
}

func TestSessionFromAuthClaims(t *testing.T) {
	t.Run("maps claims including audience and issuer", func(t *testing.T) {
		issued := time.Now().Truncate(time.Second)
		expires := issued.Add(time.Hour)

		claims := &JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "c3cbc6c5-7ab0-426b-9e1d-f17c4be09f54",
				ID:        "token-id",
				Issuer:    "test-issuer",
				Audience:  jwt.ClaimStrings{"test-audience"},
				IssuedAt:  jwt.NewNumericDate(issued),
				ExpiresAt: jwt.NewNumericDate(expires),
			},
			Use: TokenUseRefresh,
		}

		session, err := sessionFromAuthClaims(claims)
		require.NoError(t, err)

		assert.Equal(t, "c3cbc6c5-7ab0-426b-9e1d-f17c4be09f54", session.GetUserID())
		assert.Equal(t, []string{"test-audience"}, session.GetAudience())
		assert.Equal(t, "test-issuer", session.GetIssuer())
		assert.Equal(t, TokenUseRefresh, session.GetData()["token_use"])
		assert.Equal(t, "token-id", session.GetData()["token_id"])
		require.NotNil(t, session.IssuedAt)
		assert.Equal(t, issued, *session.IssuedAt)
		require.NotNil(t, session.ExpirationDate)
		assert.Equal(t, expires, *session.ExpirationDate)
	})

	t.Run("issuer falls back to the subject", func(t *testing.T) {
		claims := &JWTClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "subject-id"},
		}

		session, err := sessionFromAuthClaims(claims)
		require.NoError(t, err)
		assert.Equal(t, "subject-id", session.GetIssuer())
	})

	t.Run("nil claims are rejected", func(t *testing.T) {
		_, err := sessionFromAuthClaims(nil)
		assert.Equal(t, ErrUnableToMapClaims, err)
	})
}
