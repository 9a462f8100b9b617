package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-logr/logr"
)

type event struct {
	mode     string
	status   int
	duration time.Duration
}

// RecorderStats are the live recorder counters.
type RecorderStats struct {
	Recorded int64 `json:"recorded"`
	Failed   int64 `json:"failed"`
	Dropped  int64 `json:"dropped"`
}

// Recorder hands events to a fixed pool of workers that write them to
// Redis. Record never blocks: when the queue is full the event is dropped
// and counted.
type Recorder struct {
	analytics *Analytics
	logger    logr.Logger
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	events chan event
	wg     sync.WaitGroup

	recorded atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// NewRecorder starts workers goroutines draining a queue of queueSize.
func NewRecorder(a *Analytics, workers, queueSize int, logger logr.Logger) *Recorder {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}

	r := &Recorder{
		analytics: a,
		logger:    logger,
		timeout:   2 * time.Second,
		events:    make(chan event, queueSize),
	}
	r.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go r.worker()
	}
	return r
}

func (r *Recorder) worker() {
	defer r.wg.Done()
	for ev := range r.events {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.analytics.RecordResponse(ctx, ev.mode, ev.status, ev.duration)
		cancel()

		if err != nil {
			r.failed.Add(1)
			r.logger.Error(err, "analytics write failed", "mode", ev.mode, "status", ev.status)
			continue
		}
		r.recorded.Add(1)
	}
}

// Record enqueues one response. It is safe to call after Close.
func (r *Recorder) Record(mode string, status int, duration time.Duration) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		r.dropped.Add(1)
		return
	}
	select {
	case r.events <- event{mode: mode, status: status, duration: duration}:
	default:
		r.dropped.Add(1)
	}
}

// Close stops accepting events and waits for queued ones to be written.
func (r *Recorder) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.events)
	r.mu.Unlock()

	r.wg.Wait()
}

// Stats reads the live counters.
func (r *Recorder) Stats() RecorderStats {
	return RecorderStats{
		Recorded: r.recorded.Load(),
		Failed:   r.failed.Load(),
		Dropped:  r.dropped.Load(),
	}
}
