package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-logr/logr/funcr"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type lineSink struct {
	mu    sync.Mutex
	lines []string
}

func (s *lineSink) write(prefix, args string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, prefix+" "+args)
}

func (s *lineSink) joined() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}

func teapot(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
	w.Write([]byte("short and stout"))
}

func TestLogging_AssignsRequestID(t *testing.T) {
	sink := &lineSink{}
	logger := funcr.New(sink.write, funcr.Options{Verbosity: 1})

	var seen string
	h := Logging(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
		teapot(w, r)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/kettle?x=1", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("expected generated uuid request id, got %q", seen)
	}

	out := sink.joined()
	for _, want := range []string{`"status"=418`, `"method"="PATCH"`, `"path"="/kettle?x=1"`, `"bytes"=15`, seen} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %s, got %q", want, out)
		}
	}
}

func TestLogging_ReusesClientRequestID(t *testing.T) {
	logger := funcr.New(func(string, string) {}, funcr.Options{})

	var seen string
	h := Logging(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if seen != "abc-123" {
		t.Errorf("expected client id abc-123, got %q", seen)
	}
}

func TestLogging_QuietBelowInfo(t *testing.T) {
	sink := &lineSink{}
	logger := funcr.New(sink.write, funcr.Options{Verbosity: 0})

	h := Logging(logger, http.HandlerFunc(teapot))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if out := sink.joined(); out != "" {
		t.Errorf("expected no access log at verbosity 0, got %q", out)
	}
}

func TestRecovery(t *testing.T) {
	sink := &lineSink{}
	logger := funcr.New(sink.write, funcr.Options{})

	h := Recovery(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(sink.joined(), "boom") {
		t.Errorf("expected panic value in log, got %q", sink.joined())
	}
}

func TestCollector_RecordAndSnapshot(t *testing.T) {
	c := NewCollector()
	for i := 0; i < 10; i++ {
		c.Record("status", 200, 5*time.Millisecond)
	}
	c.Record("status", 503, 5*time.Millisecond)
	c.Record("payload", 200, 5*time.Millisecond)

	snap := c.Snapshot()
	if snap.RequestsTotal["status:200"] != 10 {
		t.Errorf("expected 10 status:200, got %d", snap.RequestsTotal["status:200"])
	}
	if snap.RequestsTotal["status:503"] != 1 {
		t.Errorf("expected 1 status:503, got %d", snap.RequestsTotal["status:503"])
	}
	if snap.ErrorsTotal["status"] != 1 {
		t.Errorf("expected 1 status error, got %d", snap.ErrorsTotal["status"])
	}
	if snap.ErrorsTotal["payload"] != 0 {
		t.Errorf("expected no payload errors, got %d", snap.ErrorsTotal["payload"])
	}

	p := snap.LatencyPercentiles["status"]
	if p.P50 != 5 || p.P95 != 5 || p.P99 != 5 {
		t.Errorf("expected all percentiles at 5ms, got %+v", p)
	}
}

func TestCollector_WindowIsBounded(t *testing.T) {
	c := NewCollector()
	for i := 0; i < maxSamples+250; i++ {
		c.Record("status", 200, time.Millisecond)
	}

	c.mu.RLock()
	n := len(c.latencies["status"])
	c.mu.RUnlock()

	if n != maxSamples {
		t.Errorf("expected window of %d, got %d", maxSamples, n)
	}
	if got := c.Snapshot().RequestsTotal["status:200"]; got != maxSamples+250 {
		t.Errorf("expected counter unaffected by window, got %d", got)
	}
}

func TestMetrics_UpdatesCollectors(t *testing.T) {
	c := NewCollector()
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("metrics-test", "418"))

	h := c.Metrics("metrics-test", http.HandlerFunc(teapot))
	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}

	after := testutil.ToFloat64(requestsTotal.WithLabelValues("metrics-test", "418"))
	if after-before != 3 {
		t.Errorf("expected prometheus counter to grow by 3, got %v", after-before)
	}
	if got := c.Snapshot().RequestsTotal["metrics-test:418"]; got != 3 {
		t.Errorf("expected collector count 3, got %d", got)
	}
	if got := testutil.ToFloat64(inFlight); got != 0 {
		t.Errorf("expected no in-flight requests, got %v", got)
	}
}

func TestTracing_RecordsServerSpan(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	h := Tracing("status", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/orders/7", nil))

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name() != "mock status" {
		t.Errorf("unexpected span name %q", span.Name())
	}
	if span.Status().Code != codes.Error {
		t.Errorf("expected error status for 503, got %v", span.Status().Code)
	}

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	if attrs["http.response.status_code"].AsInt64() != 503 {
		t.Errorf("expected status attribute 503, got %v", attrs["http.response.status_code"])
	}
	if attrs["http.request.method"].AsString() != http.MethodDelete {
		t.Errorf("expected method attribute DELETE, got %v", attrs["http.request.method"])
	}
}

func TestMetricsHandler(t *testing.T) {
	c := NewCollector()
	c.Record("payload", 200, time.Millisecond)

	h := MetricsHandler(c, map[string]StatsSource{
		"mode": func() any { return "payload" },
	})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stats", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var doc struct {
		Metrics Snapshot `json:"metrics"`
		Mode    string   `json:"mode"`
	}
	if err := json.NewDecoder(w.Body).Decode(&doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Mode != "payload" {
		t.Errorf("expected mode section, got %q", doc.Mode)
	}
	if doc.Metrics.RequestsTotal["payload:200"] != 1 {
		t.Errorf("expected 1 payload:200, got %v", doc.Metrics.RequestsTotal)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stats", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for POST, got %d", w.Code)
	}
}

func TestStatusCapture(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCode  int
		wantBytes int
	}{
		{name: "implicit 200", handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("abc")) }, wantCode: http.StatusOK, wantBytes: 3},
		{name: "explicit status", handler: teapot, wantCode: http.StatusTeapot},
		{name: "first status wins", handler: func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusAccepted)
			w.WriteHeader(http.StatusInternalServerError)
		}, wantCode: http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			sc := NewStatusCapture(rec)
			tt.handler(sc, httptest.NewRequest(http.MethodGet, "/", nil))

			if sc.Status() != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, sc.Status())
			}
			if sc.Bytes() != tt.wantBytes {
				t.Errorf("expected %d bytes, got %d", tt.wantBytes, sc.Bytes())
			}
			if sc.Unwrap() != rec {
				t.Error("expected Unwrap to return the wrapped writer")
			}
		})
	}
}
