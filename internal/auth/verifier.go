// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

// Package auth verifies the platform's RS256 identity tokens. This
// service never mints tokens; it only checks signatures against the
// shared public key and extracts the subject identity.
package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoCredentials is returned when the request carries no token.
	ErrNoCredentials = errors.New("no credentials provided")

	// ErrExpiredToken is returned for a structurally valid token past
	// its expiry.
	ErrExpiredToken = errors.New("token expired")

	// ErrInvalidToken covers every other verification failure.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims is the identity token payload. The subject is the user name
// the feed pipeline binds into its queries.
type Claims struct {
	Scope []string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates RS256 identity tokens against the platform's
// public key.
type Verifier struct {
	publicKey *rsa.PublicKey
}

// NewVerifier parses the PEM-encoded RSA public key and returns a
// verifier bound to it.
func NewVerifier(publicKeyPEM string) (*Verifier, error) {
	if publicKeyPEM == "" {
		return nil, fmt.Errorf("RSA public key is required but was empty")
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSA public key: %w", err)
	}

	return &Verifier{publicKey: key}, nil
}

// Verify validates a token and returns its claims. The signing
// algorithm must be RSA; anything else is rejected before signature
// checking to rule out algorithm confusion.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return claims, nil
}

// ExtractToken pulls the identity token from the Authorization header.
// Both a bare token and the Bearer scheme are accepted.
func ExtractToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return header
}
