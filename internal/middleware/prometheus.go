package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockserver_requests_total",
			Help: "Requests answered, by strategy and status code",
		},
		[]string{"mode", "code"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mockserver_request_duration_seconds",
			Help:    "End-to-end handling time including any configured delay",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
		[]string{"mode"},
	)

	responseBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mockserver_response_bytes_total",
			Help: "Response body bytes written, by strategy",
		},
		[]string{"mode"},
	)

	inFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mockserver_in_flight_requests",
			Help: "Requests currently being handled",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(responseBytes)
	prometheus.MustRegister(inFlight)
}
