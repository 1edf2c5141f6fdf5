package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestUserIDValidToken(t *testing.T) {
	r := NewResolver(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, "user-42", r.UserID(token))
}

func TestUserIDRejectsBadSignature(t *testing.T) {
	r := NewResolver(testSecret)
	token := signToken(t, "other-secret", jwt.MapClaims{"sub": "user-42"})
	assert.Empty(t, r.UserID(token))
}

func TestUserIDRejectsExpiredToken(t *testing.T) {
	r := NewResolver(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	assert.Empty(t, r.UserID(token))
}

func TestUserIDMissingSubject(t *testing.T) {
	r := NewResolver(testSecret)
	token := signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	assert.Empty(t, r.UserID(token))
}

func TestUserIDEmptyInputs(t *testing.T) {
	assert.Empty(t, NewResolver(testSecret).UserID(""))
	assert.Empty(t, NewResolver(testSecret).UserID("not-a-jwt"))
	assert.Empty(t, NewResolver("").UserID("anything"))
}
