package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"braintrain/backend/internal/api"
	"braintrain/backend/internal/telemetry"
	"braintrain/backend/internal/user/domain"
)

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(ctx context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit_Denied(t *testing.T) {
	limiter := &stubLimiter{allow: false}
	p := &spy{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	RateLimit(limiter, false)(p).ServeHTTP(rec, req)

	if p.called {
		t.Error("handler ran for a throttled request")
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	var env api.Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Error == nil || env.Error.Code != api.CodeTooManyRequests {
		t.Errorf("error = %+v", env.Error)
	}
	if len(limiter.keys) != 1 || limiter.keys[0] != "1.2.3.4:/api/auth/login" {
		t.Errorf("keys = %v", limiter.keys)
	}
}

func TestRateLimit_Allowed(t *testing.T) {
	p := &spy{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	RateLimit(&stubLimiter{allow: true}, false)(p).ServeHTTP(rec, req)
	if !p.called {
		t.Error("handler not called for an allowed request")
	}
}

func TestRateLimit_FailsOpen(t *testing.T) {
	p := &spy{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	RateLimit(&stubLimiter{err: errors.New("redis down")}, false)(p).ServeHTTP(rec, req)
	if !p.called {
		t.Error("limiter failure blocked the request")
	}
}

func TestRateLimit_NilLimiter(t *testing.T) {
	p := &spy{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	RateLimit(nil, false)(p).ServeHTTP(rec, req)
	if !p.called {
		t.Error("nil limiter blocked the request")
	}
}

func TestRateLimit_ForwardedForIgnoredByDefault(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	throttled := RateLimit(limiter, false)(&spy{})

	// A client rotating the header must not mint fresh limiter keys.
	for _, forged := range []string{"9.9.9.1", "9.9.9.2", "9.9.9.3"} {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		req.Header.Set("X-Forwarded-For", forged)
		throttled.ServeHTTP(httptest.NewRecorder(), req)
	}

	if len(limiter.keys) != 3 {
		t.Fatalf("keys recorded = %d, want 3", len(limiter.keys))
	}
	for _, key := range limiter.keys {
		if key != "1.2.3.4:/api/auth/login" {
			t.Errorf("key = %q, want RemoteAddr-derived key", key)
		}
	}
}

func TestRateLimit_TrustedProxyUsesFirstForwardedEntry(t *testing.T) {
	limiter := &stubLimiter{allow: true}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:443"
	req.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	RateLimit(limiter, true)(&spy{}).ServeHTTP(httptest.NewRecorder(), req)

	if len(limiter.keys) != 1 || limiter.keys[0] != "203.0.113.7:/api/auth/login" {
		t.Errorf("keys = %v", limiter.keys)
	}
}

type stubEmitter struct {
	events []telemetry.Event
}

func (s *stubEmitter) Emit(ctx context.Context, e telemetry.Event) {
	s.events = append(s.events, e)
}

func TestTelemetry_EmitsEvent(t *testing.T) {
	emitter := &stubEmitter{}
	handler := Telemetry(emitter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if len(emitter.events) != 1 {
		t.Fatalf("events = %d, want 1", len(emitter.events))
	}
	e := emitter.events[0]
	if e.Method != http.MethodGet || e.Path != "/healthz" || e.Status != http.StatusTeapot {
		t.Errorf("event = %+v", e)
	}
}

func TestTelemetry_RecordsPrincipalAttachedByGate(t *testing.T) {
	emitter := &stubEmitter{}
	// The gate runs inside the telemetry middleware and attaches the
	// principal on a derived context; the emitted event must still carry it.
	gate := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithPrincipal(r.Context(), &domain.User{ID: "u1"})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
	handler := Telemetry(emitter)(gate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	if len(emitter.events) != 1 {
		t.Fatalf("events = %d, want 1", len(emitter.events))
	}
	if got := emitter.events[0].UserID; got != "u1" {
		t.Errorf("event UserID = %q, want %q", got, "u1")
	}
}

func TestTelemetry_AnonymousRequestHasNoUserID(t *testing.T) {
	emitter := &stubEmitter{}
	handler := Telemetry(emitter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if len(emitter.events) != 1 {
		t.Fatalf("events = %d, want 1", len(emitter.events))
	}
	if got := emitter.events[0].UserID; got != "" {
		t.Errorf("event UserID = %q, want empty", got)
	}
}

func TestTelemetry_NilEmitter(t *testing.T) {
	handler := Telemetry(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
