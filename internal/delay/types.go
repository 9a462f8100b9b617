package delay

import (
	"sync/atomic"
	"time"
)

// StatusClientClosedRequest is recorded when the client goes away while its
// request is still waiting out the delay.
const StatusClientClosedRequest = 499

// Policy holds the fixed delay applied before a strategy answers.
type Policy struct {
	Duration time.Duration // zero = respond immediately

	delayed   atomic.Int64
	completed atomic.Int64
	aborted   atomic.Int64
}

// Stats is a point-in-time view of the delay counters.
type Stats struct {
	Delay             string `json:"delay"`
	DelayedRequests   int64  `json:"delayed_requests"`
	CompletedRequests int64  `json:"completed_requests"`
	AbortedRequests   int64  `json:"aborted_requests"`
}
