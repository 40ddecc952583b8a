package jwt

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RoundTrip(t *testing.T) {
	m := NewManager("secret", time.Hour)

	token, err := m.GenerateAccessToken("6f1c8a52-3a53-4b8e-9d0b-0f4f0e1b7c11", "alice@example.com", "admin")
	require.NoError(t, err)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "6f1c8a52-3a53-4b8e-9d0b-0f4f0e1b7c11", claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
}

func TestManager_RejectsWrongSecret(t *testing.T) {
	token, err := NewManager("one", time.Hour).GenerateAccessToken("id", "a@example.com", "customer")
	require.NoError(t, err)

	_, err = NewManager("two", time.Hour).ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsExpired(t *testing.T) {
	m := NewManager("secret", time.Minute)
	issued := time.Date(2030, 6, 5, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.GenerateAccessToken("id", "a@example.com", "customer")
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = m.ValidateAccessToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestManager_RejectsNonAccessToken(t *testing.T) {
	m := NewManager("secret", time.Hour)

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "id", Type: "refresh"})
	signed, err := refresh.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = m.ValidateToken(signed)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(signed)
	assert.True(t, errors.Is(err, ErrInvalidToken))
}

func TestManager_RejectsNoneAlgorithm(t *testing.T) {
	m := NewManager("secret", time.Hour)

	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "id", Type: "access"})
	signed, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
