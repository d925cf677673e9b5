package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"braintrain/backend/internal/api"
	"braintrain/backend/internal/security"
	"braintrain/backend/internal/user/domain"
)

// UserFinder resolves a token subject to an account.
type UserFinder interface {
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
}

// LivenessChecker answers whether a token's stored record is still live.
type LivenessChecker interface {
	IsLive(ctx context.Context, tokenValue string) (bool, error)
}

// Gate is the per-request bearer-token check. It never blocks anonymous
// requests; route-level authorization is not its job. The only request it
// terminates is one carrying a token that failed specifically on expiry.
type Gate struct {
	tokens   *security.TokenProvider
	users    UserFinder
	registry LivenessChecker
}

func NewGate(tokens *security.TokenProvider, users UserFinder, registry LivenessChecker) *Gate {
	return &Gate{tokens: tokens, users: users, registry: registry}
}

// Handler wraps next with the gate.
//
// Request auth status moves Unauthenticated to one of Unauthenticated,
// Authenticated, or Rejected(401 token_expired); Rejected writes the envelope
// and stops the chain.
func (g *Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := BearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		subject, err := g.tokens.Parse(token)
		if errors.Is(err, security.ErrTokenExpired) {
			api.WriteError(w, http.StatusUnauthorized, api.CodeTokenExpired, "access token expired")
			return
		}
		if err != nil {
			// Malformed or foreign token: ignored, not rejected.
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		if _, attached := GetPrincipal(ctx); attached {
			next.ServeHTTP(w, r)
			return
		}

		user, err := g.users.GetByPhone(ctx, subject)
		if err != nil {
			log.Printf("gate: look up subject: %v", err)
			next.ServeHTTP(w, r)
			return
		}
		if user != nil {
			live, err := g.registry.IsLive(ctx, token)
			if err != nil {
				log.Printf("gate: liveness check: %v", err)
			} else if live {
				ctx = WithPrincipal(ctx, user)
			}
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth rejects requests that reached the handler without a principal.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetPrincipal(r.Context()); !ok {
			api.WriteError(w, http.StatusUnauthorized, api.CodeUnauthenticated, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// BearerToken extracts the bearer token from the Authorization header, or ""
// when the header is absent or not a bearer scheme.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}
