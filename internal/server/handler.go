package server

import (
	"net/http"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CSroseX/mock-http-server/internal/analytics"
	"github.com/CSroseX/mock-http-server/internal/delay"
	"github.com/CSroseX/mock-http-server/internal/middleware"
)

// Pipeline describes the handler chain in front of the active strategy.
type Pipeline struct {
	Mode     string
	Strategy http.Handler
	Delay    *delay.Policy

	Collector *middleware.Collector // optional
	Recorder  *analytics.Recorder   // optional

	Logger logr.Logger
}

// Handler returns the single handler answering every request regardless
// of method or path. The delay runs last, right before the strategy, so a
// request aborted during its delay never reaches the strategy.
func (p Pipeline) Handler() http.Handler {
	h := p.Delay.Middleware(p.Logger, p.Strategy)
	if p.Recorder != nil {
		h = analytics.Middleware(p.Recorder, p.Mode, h)
	}
	if p.Collector != nil {
		h = p.Collector.Metrics(p.Mode, h)
	}
	h = middleware.Tracing(p.Mode, h)
	h = middleware.Logging(p.Logger, h)
	return middleware.Recovery(p.Logger, h)
}

// AdminMux serves the admin endpoints. analyticsHandler may be nil.
func AdminMux(collector *middleware.Collector, sections map[string]middleware.StatsSource, analyticsHandler http.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/stats", middleware.MetricsHandler(collector, sections))
	mux.HandleFunc("/healthz", handleHealth)

	if analyticsHandler != nil {
		mux.Handle("/analytics", analyticsHandler)
	} else {
		mux.HandleFunc("/analytics", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "analytics disabled: start with --redis-addr", http.StatusNotFound)
		})
	}
	return mux
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
