package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/promptpix/api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	t.Setenv(SecretEnv, "test-secret-key")

	user := &models.User{ID: 42, Email: "jane@example.com"}
	token, err := NewAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, token.Access)

	id, ok := VerifyToken(token.Access)
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	t.Setenv(SecretEnv, "test-secret-key")

	_, ok := VerifyToken("not-a-token")
	assert.False(t, ok)
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv(SecretEnv, "test-secret-key")

	user := &models.User{ID: 7, Email: "joe@example.com"}
	token, err := NewAccessToken(user)
	require.NoError(t, err)

	t.Setenv(SecretEnv, "a-different-secret")
	_, ok := VerifyToken(token.Access)
	assert.False(t, ok)
}

func TestVerifyTokenRejectsNonHMACSigningMethods(t *testing.T) {
	t.Setenv(SecretEnv, "test-secret-key")

	claims := jwt.RegisteredClaims{
		ID:        "42",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	// Unsigned token.
	none := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, ok := VerifyToken(signed)
	assert.False(t, ok)

	// Token signed with a non-HMAC algorithm.
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	rs := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err = rs.SignedString(key)
	require.NoError(t, err)
	_, ok = VerifyToken(signed)
	assert.False(t, ok)
}

func TestPasswordHashAndVerify(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery staple", hash)

	assert.True(t, VerifyPassword("correct horse battery staple", hash))
	assert.False(t, VerifyPassword("wrong password", hash))
}
