package util

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateAndParseJWT(t *testing.T) {
	token, expiresAt, err := GenerateJWT("user-1", "kyi@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID())
	assert.Equal(t, "kyi@example.com", claims.Email)
	assert.Equal(t, "authenticated", claims.Role)
}

func TestParseJWT_Rejects(t *testing.T) {
	valid, _, err := GenerateJWT("user-1", "kyi@example.com", testSecret, time.Hour)
	require.NoError(t, err)
	expired, _, err := GenerateJWT("user-1", "kyi@example.com", testSecret, -time.Minute)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{name: "wrong secret", token: valid, secret: "another-secret-another-secret-xx"},
		{name: "expired", token: expired, secret: testSecret},
		{name: "missing subject", token: noSubject, secret: testSecret},
		{name: "missing expiry", token: noExpiry, secret: testSecret},
		{name: "not a token", token: "abc.def.ghi", secret: testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseJWT(tt.token, tt.secret)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}
