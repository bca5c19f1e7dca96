// Package security issues and validates the bearer tokens used by the JSON
// API. Tokens are HS256 JWTs carrying the user ID as subject.
package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pictotext/pictotext/internal/pkg/env"
)

const tokenIssuer = "pictotext"

// DefaultTokenTTL is the lifetime of API bearer tokens.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("invalid token")
)

// TokenService signs and verifies API tokens with a shared HMAC secret.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("security: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// NewTokenServiceFromEnv reads JWT_SECRET from the environment.
func NewTokenServiceFromEnv() (*TokenService, error) {
	return NewTokenService(env.GetEnv("JWT_SECRET", ""))
}

type apiClaims struct {
	jwt.RegisteredClaims
}

// Generate signs a token for the user with the default lifetime.
func (s *TokenService) Generate(userID uint) (string, error) {
	return s.GenerateWithDuration(userID, DefaultTokenTTL)
}

// GenerateWithDuration signs a token with a custom lifetime.
func (s *TokenService) GenerateWithDuration(userID uint, d time.Duration) (string, error) {
	now := time.Now()
	c := apiClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("security: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies a token string and returns the user ID it was issued
// for. Only HS256 tokens with our issuer and a future expiry pass.
func (s *TokenService) Validate(tokenStr string) (uint, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&apiClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("security: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	c, ok := token.Claims.(*apiClaims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}

	userID, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, ErrTokenInvalid
	}
	return uint(userID), nil
}
