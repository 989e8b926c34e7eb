// Package auth issues bearer tokens and hashes passwords.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer signs HS256 tokens whose subject is the user id.
type Issuer struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewIssuer creates a token issuer. The same secret, issuer and audience
// must be handed to the validating middleware.
func NewIssuer(secret, issuer, audience string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, errors.New("token secret is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token ttl must be positive, got %s", ttl)
	}
	return &Issuer{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

// Issue returns a signed token for userID.
func (i *Issuer) Issue(userID string) (string, error) {
	now := i.now()
	claims := jwt.RegisteredClaims{
		Issuer:    i.issuer,
		Subject:   userID,
		Audience:  jwt.ClaimStrings{i.audience},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
