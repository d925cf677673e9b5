package middleware

import (
	"context"

	"braintrain/backend/internal/user/domain"
)

type contextKey string

const (
	principalKey contextKey = "principal"
	capturedKey  contextKey = "principalCapture"
)

// principalCapture lets upstream middleware observe a principal attached
// downstream. Context values only flow down the chain; the capture is a
// shared holder that carries the principal back up after the chain returns.
type principalCapture struct {
	user *domain.User
}

// withPrincipalCapture installs a capture holder; the returned holder is
// filled in by any later WithPrincipal call on a descendant context.
func withPrincipalCapture(ctx context.Context) (context.Context, *principalCapture) {
	c := &principalCapture{}
	return context.WithValue(ctx, capturedKey, c), c
}

// WithPrincipal returns a context carrying user as the authenticated principal.
func WithPrincipal(ctx context.Context, user *domain.User) context.Context {
	if c, ok := ctx.Value(capturedKey).(*principalCapture); ok {
		c.user = user
	}
	return context.WithValue(ctx, principalKey, user)
}

// GetPrincipal returns the authenticated principal attached by the gate, if any.
func GetPrincipal(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(principalKey).(*domain.User)
	return user, ok
}
