// Package auth validates the access tokens issued by the authentication layer
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const accessTokenType = "access"

// ErrInvalidToken is returned for every token that can not be used to authenticate a request
var ErrInvalidToken = errors.New("invalid access token")

// accessClaims is the payload of an access token
type accessClaims struct {
	UserID int    `json:"user_id"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenService handles JWT access token signing and validation
//
// Tokens are HS256 signed and carry "user_id" and "type" = "access" claims.
type TokenService struct {
	secret            []byte
	accessTokenExpiry time.Duration
	parser            *jwt.Parser
}

// NewTokenService creates a new token service
func NewTokenService(secret string, accessExpiry time.Duration) *TokenService {
	return &TokenService{
		secret:            []byte(secret),
		accessTokenExpiry: accessExpiry,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken creates an access token for the user
//
// Only tests and local tooling issue tokens; production tokens come from the auth layer.
func (ts *TokenService) GenerateAccessToken(userID int) (string, error) {
	now := time.Now()
	claims := accessClaims{
		UserID: userID,
		Type:   accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.accessTokenExpiry)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// ValidateAccessToken validates an access token and returns the user ID it was issued for
func (ts *TokenService) ValidateAccessToken(tokenString string) (int, error) {
	var claims accessClaims
	_, err := ts.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return ts.secret, nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims.Type != accessTokenType {
		return 0, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: missing user_id", ErrInvalidToken)
	}

	return claims.UserID, nil
}
