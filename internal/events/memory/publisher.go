// Package memory contains an in-memory event publisher for tests.
package memory

import (
	"context"
	"sync"

	"github.com/ackwest/seoengine/internal/core"
)

// Publisher stores published events for inspection.
type Publisher struct {
	mu     sync.RWMutex
	events []core.Event
}

// New returns a memory Publisher.
func New() *Publisher {
	return &Publisher{}
}

// Publish records the event.
func (p *Publisher) Publish(_ context.Context, event core.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns the recorded publishes.
func (p *Publisher) Events() []core.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]core.Event, len(p.events))
	copy(out, p.events)
	return out
}

// Named returns recorded events matching the given name.
func (p *Publisher) Named(name string) []core.Event {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []core.Event
	for _, e := range p.events {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}
