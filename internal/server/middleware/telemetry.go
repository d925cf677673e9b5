package middleware

import (
	"context"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"braintrain/backend/internal/telemetry"
)

// statusRecorder captures the status code written by downstream handlers.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Emitter publishes request events.
type Emitter interface {
	Emit(ctx context.Context, e telemetry.Event)
}

// Telemetry traces every request and, when emitter is non-nil, publishes a
// request event after the handler returns.
func Telemetry(emitter Emitter) func(http.Handler) http.Handler {
	tracer := otel.Tracer("braintrain/backend/internal/server")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			// The gate runs after this middleware, so the principal it
			// attaches is invisible here; the capture carries it back up.
			ctx, captured := withPrincipalCapture(ctx)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start)

			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.target", r.URL.Path),
				attribute.Int("http.status_code", rec.status),
			)
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}

			if emitter != nil {
				event := telemetry.Event{
					Method:     r.Method,
					Path:       r.URL.Path,
					Status:     rec.status,
					DurationMS: elapsed.Milliseconds(),
					At:         start.UTC(),
				}
				if captured.user != nil {
					event.UserID = captured.user.ID
				}
				emitter.Emit(ctx, event)
			}
		})
	}
}
