package delay

import (
	"context"
	"time"
)

// New returns a policy for d. A zero duration disables the delay.
func New(d time.Duration) *Policy {
	return &Policy{Duration: d}
}

// Enabled reports whether requests are delayed at all.
func (p *Policy) Enabled() bool {
	return p != nil && p.Duration > 0
}

// Wait blocks for the configured duration or until ctx is done, whichever
// comes first. Each caller gets its own timer so concurrent waits never
// serialize.
func (p *Policy) Wait(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	p.delayed.Add(1)

	timer := time.NewTimer(p.Duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		p.completed.Add(1)
		return nil
	case <-ctx.Done():
		p.aborted.Add(1)
		return ctx.Err()
	}
}

// Stats reads the counters. A nil policy reports a zero delay.
func (p *Policy) Stats() Stats {
	if p == nil {
		return Stats{Delay: "0s"}
	}
	return Stats{
		Delay:             p.Duration.String(),
		DelayedRequests:   p.delayed.Load(),
		CompletedRequests: p.completed.Load(),
		AbortedRequests:   p.aborted.Load(),
	}
}
