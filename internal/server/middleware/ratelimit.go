package middleware

import (
	"context"
	"log"
	"net"
	"net/http"
	"strings"

	"braintrain/backend/internal/api"
)

// Limiter decides whether a request identified by key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit throttles requests per client IP and path. A nil limiter disables
// throttling; a limiter failure lets the request through so that a redis
// outage cannot take down login. trustProxy must only be set when the server
// sits behind a proxy that overwrites X-Forwarded-For; otherwise the header
// is attacker-controlled and ignoring it is the safe choice.
func RateLimit(limiter Limiter, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r, trustProxy) + ":" + r.URL.Path
			ok, err := limiter.Allow(r.Context(), key)
			if err != nil {
				log.Printf("ratelimit: %v", err)
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				api.WriteError(w, http.StatusTooManyRequests, api.CodeTooManyRequests, "too many requests, slow down")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		// Only the first entry is the original client; later entries are
		// appended by intermediate proxies.
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			if ip := strings.TrimSpace(fwd); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
