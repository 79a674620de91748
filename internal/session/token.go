package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SignToken wraps a session id in an HS256 JWT so that forged or tampered
// cookies are rejected before the store is consulted.
func SignToken(id string, issuedAt, expiresAt time.Time, secret []byte) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        id,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("session: sign token: %w", err)
	}
	return token, nil
}

// ParseToken verifies the signature and expiry of token at now and returns
// the session id it carries. Every failure is reported as ErrInvalidToken.
func ParseToken(token string, secret []byte, now time.Time) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (interface{}, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)
	if err != nil || claims.ID == "" {
		return "", ErrInvalidToken
	}
	return claims.ID, nil
}
