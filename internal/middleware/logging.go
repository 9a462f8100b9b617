package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"

	"github.com/CSroseX/mock-http-server/internal/observability"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDHeader is honoured when the client already carries an id.
const RequestIDHeader = "X-Request-ID"

// RequestIDFromContext returns the id assigned by Logging.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// Logging writes one access log line per request at info verbosity.
func Logging(logger logr.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		r = r.WithContext(context.WithValue(r.Context(), requestIDKey, id))

		sc := NewStatusCapture(w)
		next.ServeHTTP(sc, r)

		logger.V(observability.VInfo).Info("request",
			"id", id,
			"remote", r.RemoteAddr,
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"proto", r.Proto,
			"status", sc.statusCode,
			"bytes", sc.bytes,
			"user_agent", r.UserAgent(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Recovery turns a handler panic into a 500 and an error log line.
func Recovery(logger logr.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error(nil, "panic recovered", "panic", rec, "method", r.Method, "path", r.URL.Path)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
