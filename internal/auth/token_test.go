package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueToken_RoundTrip(t *testing.T) {
	secret := []byte("role-a-key")

	tok, err := IssueToken(42, "operator", 10*time.Minute, secret)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret, true)
	require.NoError(t, err)
	assert.Equal(t, int32(42), claims.TokenID)
	assert.Equal(t, "operator", claims.Subject)
	assert.Equal(t, 10*time.Minute, claims.Lifetime())
}

func TestParseToken_WrongKey(t *testing.T) {
	tok, err := IssueToken(1, "operator", time.Minute, []byte("key-a"))
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("key-b"), true)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = ParseToken(tok, []byte("key-b"), false)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_Expired(t *testing.T) {
	secret := []byte("key")
	tok, err := IssueToken(7, "viewer", -time.Minute, secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret, true)
	assert.ErrorIs(t, err, ErrTokenExpired)

	claims, err := ParseToken(tok, secret, false)
	require.NoError(t, err, "expired tokens still decode when expiry is not required")
	assert.Equal(t, int32(7), claims.TokenID)
	assert.Equal(t, -time.Minute, claims.Lifetime())
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	secret := []byte("key")
	claims := &Claims{
		TokenID:   3,
		Subject:   "viewer",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret, true)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseToken_Malformed(t *testing.T) {
	_, err := ParseToken("a.b", []byte("key"), false)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestIssueToken_EmptyKey(t *testing.T) {
	_, err := IssueToken(1, "viewer", time.Minute, nil)
	require.Error(t, err)
	assert.False(t, strings.Contains(err.Error(), "viewer"))
}
