// Package server assembles the HTTP router and middleware chain.
package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"braintrain/backend/internal/api"
	authhandler "braintrain/backend/internal/auth/handler"
	"braintrain/backend/internal/server/middleware"
	userhandler "braintrain/backend/internal/user/handler"
)

// Options carries the router's dependencies. Limiter and Emitter are optional.
// TrustProxy makes the rate limiter key on X-Forwarded-For and must stay false
// unless a trusted proxy rewrites that header.
type Options struct {
	Auth       *authhandler.Handler
	Users      *userhandler.Handler
	Gate       *middleware.Gate
	Limiter    middleware.Limiter
	Emitter    middleware.Emitter
	TrustProxy bool
}

// NewRouter builds the full route table. Middleware order is telemetry first
// (so rejected requests are still traced), then the auth gate; the rate
// limiter wraps only the credential and OTP routes.
func NewRouter(opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(mux.MiddlewareFunc(middleware.Telemetry(opts.Emitter)))
	if opts.Gate != nil {
		r.Use(mux.MiddlewareFunc(opts.Gate.Handler))
	}

	opts.Auth.Register(r, middleware.RateLimit(opts.Limiter, opts.TrustProxy))
	opts.Users.Register(r)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	return r
}
