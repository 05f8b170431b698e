package ai

import (
	"context"
	"sync"
	"time"
)

// pacer enforces a minimum interval between model calls so we stay
// under provider rate limits even with many tenants generating at once.
type pacer struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

func newPacer(interval time.Duration) *pacer {
	return &pacer{interval: interval}
}

// wait blocks until the interval since the previous call has elapsed or
// the context is cancelled.
func (p *pacer) wait(ctx context.Context) error {
	if p == nil || p.interval <= 0 {
		return nil
	}
	p.mu.Lock()
	now := time.Now()
	next := p.last.Add(p.interval)
	if next.Before(now) {
		next = now
	}
	p.last = next
	p.mu.Unlock()

	delay := time.Until(next)
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
