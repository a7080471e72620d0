// Affinity - Graph-Backed Personalized Feed
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/openclique/affinity

package auth

import (
	"context"
	"net/http"

	"github.com/openclique/affinity/internal/logging"
)

type contextKey string

const identityKey contextKey = "identity"

// ContextWithIdentity stores a verified identity on the context.
func ContextWithIdentity(ctx context.Context, identity string) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// IdentityFromContext returns the verified identity, or "" when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) string {
	identity, _ := ctx.Value(identityKey).(string)
	return identity
}

// Middleware verifies the identity token on every request it wraps and
// rejects the request before any handler work when verification fails.
type Middleware struct {
	verifier *Verifier
	disabled bool
	reject   func(w http.ResponseWriter, r *http.Request, status int, message string)
}

// NewMiddleware creates the authentication middleware. The reject
// function writes the error response so the API layer keeps control of
// the wire format. With disabled set, the raw token is trusted as the
// identity; development only.
func NewMiddleware(verifier *Verifier, disabled bool, reject func(w http.ResponseWriter, r *http.Request, status int, message string)) *Middleware {
	return &Middleware{verifier: verifier, disabled: disabled, reject: reject}
}

// Handler wraps next with token verification. The verified subject is
// placed on the request context for handlers downstream.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := ExtractToken(r)
		if token == "" {
			m.reject(w, r, http.StatusBadRequest, "Invalid token")
			return
		}

		if m.disabled {
			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), token)))
			return
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("token verification failed")
			m.reject(w, r, http.StatusBadRequest, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), claims.Subject)))
	})
}
