// Package auth provides the session-token signer, password hashing, and the
// bearer-token middleware.
//
// A session token is a signed JWT whose subject is the user ID. Signing makes
// the token tamper-evident; it does NOT make it a session by itself. A token
// is only accepted while its exact string is present in the user's stored
// token set, which is what logout and logout-all remove. Tokens therefore
// carry an issued-at claim but no expiry: revocation is manual, by deleting
// the stored row.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "task-manager"

// TokenService signs and verifies session tokens with an HMAC secret.
// The same secret is used for both operations.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// Sign creates a signed session token for the given userID.
//
// The claims are Subject (the user ID), IssuedAt, and Issuer. There is no
// ExpiresAt: validity is decided by membership in the user's stored token
// set, not by the clock.
func (s *TokenService) Sign(userID string) (string, error) {
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature of a token string and returns the user ID from
// its subject claim. It fails closed: any tampering, malformed input, wrong
// algorithm, or wrong issuer is an error.
//
// Verify says nothing about revocation. Callers must still confirm the exact
// token string is in the user's active set before trusting it.
func (s *TokenService) Verify(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			// Reject anything that isn't HS256. Without this check an
			// attacker could present a token signed with "none".
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
	)
	if err != nil {
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", errors.New("auth: invalid token claims")
	}

	if c.Subject == "" {
		return "", errors.New("auth: token has no subject")
	}

	return c.Subject, nil
}
