package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
)

// maxSamples bounds the latency window kept per mode.
const maxSamples = 1000

// Collector keeps in-process request counters and a sliding latency window
// for the JSON stats endpoint.
type Collector struct {
	mu sync.RWMutex

	requestCount map[string]int64 // mode:status
	errorCount   map[string]int64 // mode

	latencies map[string][]float64 // mode -> milliseconds
}

// Percentiles are latency percentiles in milliseconds.
type Percentiles struct {
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// Snapshot is a consistent copy of the collector state.
type Snapshot struct {
	RequestsTotal      map[string]int64       `json:"requests_total"`
	ErrorsTotal        map[string]int64       `json:"errors_total"`
	LatencyPercentiles map[string]Percentiles `json:"latency_percentiles"`
}

// NewCollector returns an empty collector.
func NewCollector() *Collector {
	return &Collector{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
		latencies:    make(map[string][]float64),
	}
}

// Record stores one completed request.
func (c *Collector) Record(mode string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requestCount[mode+":"+strconv.Itoa(status)]++
	if status >= 400 {
		c.errorCount[mode]++
	}

	window := append(c.latencies[mode], float64(duration)/float64(time.Millisecond))
	if len(window) > maxSamples {
		window = window[len(window)-maxSamples:]
	}
	c.latencies[mode] = window
}

// Snapshot copies the counters and computes percentiles per mode.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{
		RequestsTotal:      make(map[string]int64, len(c.requestCount)),
		ErrorsTotal:        make(map[string]int64, len(c.errorCount)),
		LatencyPercentiles: make(map[string]Percentiles, len(c.latencies)),
	}
	for k, v := range c.requestCount {
		snap.RequestsTotal[k] = v
	}
	for k, v := range c.errorCount {
		snap.ErrorsTotal[k] = v
	}
	for mode, window := range c.latencies {
		if len(window) == 0 {
			continue
		}
		snap.LatencyPercentiles[mode] = calculatePercentiles(window)
	}
	return snap
}

func calculatePercentiles(samples []float64) Percentiles {
	data := stats.Float64Data(samples)
	p50, _ := data.Percentile(50)
	p95, _ := data.Percentile(95)
	p99, _ := data.Percentile(99)
	return Percentiles{P50: p50, P95: p95, P99: p99}
}

// Metrics records every request in c and in the Prometheus collectors.
func (c *Collector) Metrics(mode string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		inFlight.Inc()
		defer inFlight.Dec()

		sc := NewStatusCapture(w)
		next.ServeHTTP(sc, r)

		duration := time.Since(start)
		c.Record(mode, sc.statusCode, duration)
		requestsTotal.WithLabelValues(mode, strconv.Itoa(sc.statusCode)).Inc()
		requestDuration.WithLabelValues(mode).Observe(duration.Seconds())
		responseBytes.WithLabelValues(mode).Add(float64(sc.bytes))
	})
}
