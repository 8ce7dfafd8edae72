package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RoundTrip(t *testing.T) {
	auth := NewAuthService("secret", time.Hour)

	token, err := auth.GenerateJWT("user-1")
	require.NoError(t, err)

	userID, err := auth.UserID(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestAuthService_RejectsForeignSecret(t *testing.T) {
	token, err := NewAuthService("other", time.Hour).GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = NewAuthService("secret", time.Hour).UserID(token)
	assert.Error(t, err)
}

func TestAuthService_RejectsExpired(t *testing.T) {
	token, err := NewAuthService("secret", -time.Minute).GenerateJWT("user-1")
	require.NoError(t, err)

	_, err = NewAuthService("secret", time.Hour).UserID(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestAuthService_RequiresUserClaim(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewAuthService("secret", time.Hour).UserID(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
