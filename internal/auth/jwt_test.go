package auth_test

import (
	"errors"
	"testing"
	"time"

	"github.com/JadeHendricks/mern-devconnector/internal/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndVerify(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)

	tok, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	require.NotNil(t, claims.ExpiresAt)
	require.NotNil(t, claims.IssuedAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	now := issued

	m := auth.NewManager("secret", time.Hour, auth.WithClock(func() time.Time { return now }))

	tok, err := m.GenerateAccessToken("user-1")
	require.NoError(t, err)

	now = issued.Add(59 * time.Minute)
	_, err = m.VerifyAccessToken(tok)
	require.NoError(t, err)

	now = issued.Add(2 * time.Hour)
	_, err = m.VerifyAccessToken(tok)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyWrongSecret(t *testing.T) {
	tok, err := auth.NewManager("secret-a", time.Hour).GenerateAccessToken("user-1")
	require.NoError(t, err)

	_, err = auth.NewManager("secret-b", time.Hour).VerifyAccessToken(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewManager("secret", time.Hour).VerifyAccessToken(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = auth.NewManager("secret", time.Hour).VerifyAccessToken(none)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerifyMalformed(t *testing.T) {
	m := auth.NewManager("secret", time.Hour)

	for _, tok := range []string{"", "abc", "a.b.c"} {
		_, err := m.VerifyAccessToken(tok)
		assert.True(t, errors.Is(err, auth.ErrInvalidToken), "token %q", tok)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "user-1"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = auth.NewManager("secret", time.Hour).VerifyAccessToken(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
