package middleware

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request on the global tracer provider.
func Tracing(mode string, next http.Handler) http.Handler {
	tracer := otel.Tracer("mock-http-server")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "mock "+mode,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("url.path", r.URL.Path),
				attribute.String("mock.mode", mode),
			),
		)
		defer span.End()

		if id, ok := RequestIDFromContext(ctx); ok {
			span.SetAttributes(attribute.String("request.id", id))
		}

		sc := NewStatusCapture(w)
		next.ServeHTTP(sc, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.response.status_code", sc.statusCode))
		if sc.statusCode >= 500 {
			span.SetStatus(codes.Error, http.StatusText(sc.statusCode))
		}
	})
}
