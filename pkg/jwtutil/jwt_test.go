package jwtutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
)

func TestGenerateAndValidateToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test_secret", ExpirationHours: 168})

	token, err := GenerateToken(7, "a@x.com", "seller")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, uint(7), claims.UserID)
	require.Equal(t, "a@x.com", claims.Email)
	require.Equal(t, "seller", claims.Role)
	require.Empty(t, claims.Provider)
}

func TestGenerateProviderToken(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test_secret", ExpirationHours: 168})

	token, err := GenerateProviderToken("facebook", "fb-001", "fb-001@facebook.com")
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	require.Zero(t, claims.UserID)
	require.Equal(t, "facebook", claims.Provider)
	require.Equal(t, "fb-001", claims.ProviderID)
	require.Equal(t, "fb-001@facebook.com", claims.Email)
}

func TestValidateTokenWrongKey(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "key_one", ExpirationHours: 168})
	token, err := GenerateToken(1, "a@x.com", "buyer")
	require.NoError(t, err)

	Initialize(&config.JWTConfig{SigningKey: "key_two", ExpirationHours: 168})
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenGarbage(t *testing.T) {
	Initialize(&config.JWTConfig{SigningKey: "test_secret", ExpirationHours: 168})

	_, err := ValidateToken("definitely not a jwt")
	require.Error(t, err)
}

func TestGenerateTokenWithoutConfig(t *testing.T) {
	Initialize(nil)
	defer Initialize(&config.JWTConfig{SigningKey: "test_secret", ExpirationHours: 168})

	_, err := GenerateToken(1, "a@x.com", "buyer")
	require.Error(t, err)
}
