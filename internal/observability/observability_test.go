package observability

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in          string
		want        Level
		expectError bool
	}{
		{in: "info", want: LevelInfo},
		{in: "INFO", want: LevelInfo},
		{in: " Debug ", want: LevelDebug},
		{in: "trace", want: LevelTrace},
		{in: "warn", want: LevelWarn},
		{in: "error", want: LevelError},
		{in: "off", want: LevelOff},
		{in: "verbose", expectError: true},
		{in: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewLogger_Verbosity(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelInfo, &buf)

	logger.V(VInfo).Info("visible at info")
	logger.V(VDebug).Info("hidden at info")
	logger.V(VWarn).Info("warning shown")

	out := buf.String()
	if !strings.Contains(out, "visible at info") {
		t.Errorf("expected info line, got %q", out)
	}
	if !strings.Contains(out, "warning shown") {
		t.Errorf("expected warning line, got %q", out)
	}
	if strings.Contains(out, "hidden at info") {
		t.Errorf("debug line leaked at info level: %q", out)
	}
}

func TestNewLogger_WarnHidesInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LevelWarn, &buf)

	logger.V(VInfo).Info("info line")
	logger.Error(nil, "error line")

	out := buf.String()
	if strings.Contains(out, "info line") {
		t.Errorf("info line leaked at warn level: %q", out)
	}
	if !strings.Contains(out, "error line") {
		t.Errorf("expected error line, got %q", out)
	}
}

func TestNewLogger_Off(t *testing.T) {
	logger := NewLogger(LevelOff, nil)
	if logger.Enabled() {
		t.Error("expected discard logger to be disabled")
	}
	logger.Error(nil, "nothing happens")
}

func TestInitTracer_ExportsSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := InitTracer("mockserver-test", &buf, logr.Discard())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := otel.Tracer("test").Start(context.Background(), "probe-span")
	span.End()

	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "probe-span") {
		t.Errorf("expected exported span, got %q", out)
	}
	if !strings.Contains(out, "mockserver-test") {
		t.Errorf("expected service name in resource, got %q", out)
	}
}
