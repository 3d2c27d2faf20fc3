// Package identity resolves caller tokens to stable owner identifiers.
//
// The identity provider itself is an external collaborator; this package
// only validates the tokens it mints and extracts the subject claim, which
// the rest of the service treats as the opaque owner ID.
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Validator verifies HMAC-signed tokens issued by the identity provider.
type Validator struct {
	signingKey []byte
}

// NewValidator constructs a Validator with the shared signing key.
func NewValidator(signingKey string) *Validator {
	return &Validator{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the subject claim.
// Expired or malformed tokens fail; jwt.Parse enforces exp/nbf by default.
func (v *Validator) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.signingKey, nil
	})
	if err != nil {
		return "", fmt.Errorf("parse token: %w", err)
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read subject claim: %w", err)
	}
	if subject == "" {
		return "", fmt.Errorf("token has no subject claim")
	}

	return subject, nil
}
