package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rakeshmondal461/marketplace-proto/pkg/config"
)

var cfg *config.JWTConfig

// UserClaims is the bearer token payload. Tokens issued after a password
// login carry UserID/Email/Role. Tokens issued by the OAuth bridge carry
// Provider/ProviderID instead and leave UserID at zero: they reference an
// external identity that has no local user row (see middleware.Authenticate).
type UserClaims struct {
	UserID     uint   `json:"user_id,omitempty"`
	Email      string `json:"email"`
	Role       string `json:"role,omitempty"`
	Provider   string `json:"provider,omitempty"`
	ProviderID string `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

// Initialize sets the signing configuration used by this package
func Initialize(c *config.JWTConfig) {
	cfg = c
}

func expiration() time.Duration {
	hours := 168 // 7 days
	if cfg != nil && cfg.ExpirationHours > 0 {
		hours = cfg.ExpirationHours
	}
	return time.Duration(hours) * time.Hour
}

func signingKey() ([]byte, error) {
	if cfg == nil || cfg.SigningKey == "" {
		return nil, errors.New("JWT configuration not provided")
	}
	return []byte(cfg.SigningKey), nil
}

// GenerateToken creates a signed token for a local user account
func GenerateToken(userID uint, email, role string) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	claims := UserClaims{
		UserID: userID,
		Email:  email,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration())),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// GenerateProviderToken creates a signed token for an external identity that
// is not linked to any local user row. UserID stays zero on purpose.
func GenerateProviderToken(provider, providerID, email string) (string, error) {
	key, err := signingKey()
	if err != nil {
		return "", err
	}

	claims := UserClaims{
		Email:      email,
		Provider:   provider,
		ProviderID: providerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiration())),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(key)
}

// ValidateToken validates and parses the JWT token
func ValidateToken(tokenString string) (*UserClaims, error) {
	key, err := signingKey()
	if err != nil {
		return nil, err
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		},
	)
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*UserClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token")
}
