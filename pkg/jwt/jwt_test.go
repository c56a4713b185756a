package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("64b7f0c2a1b2c3d4e5f60718", "ann@example.com", "secret", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token, "secret")
	require.NoError(t, err)
	require.Equal(t, "64b7f0c2a1b2c3d4e5f60718", claims.UserID)
	require.Equal(t, "ann@example.com", claims.Email)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("u1", "u1@example.com", "secret", time.Hour)
	require.NoError(t, err)

	_, err = ValidateToken(token, "other")
	require.Error(t, err)
}

func TestValidateTokenExpired(t *testing.T) {
	token, err := GenerateToken("u1", "u1@example.com", "secret", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token, "secret")
	require.Error(t, err)
}

func TestGenerateTokenWithoutSecret(t *testing.T) {
	_, err := GenerateToken("u1", "u1@example.com", "", time.Hour)
	require.Error(t, err)
}
