// Package events wires domain-event publishers together.
package events

import (
	"context"
	"errors"

	"github.com/ackwest/seoengine/internal/core"
)

// Fanout publishes each event to every configured publisher.
// Webhook dispatch and the optional Pub/Sub bridge both hang off it.
type Fanout struct {
	publishers []core.EventPublisher
}

// NewFanout builds a Fanout over the given publishers. Nil entries
// are skipped so callers can pass optional publishers directly.
func NewFanout(publishers ...core.EventPublisher) *Fanout {
	out := &Fanout{}
	for _, p := range publishers {
		if p != nil {
			out.publishers = append(out.publishers, p)
		}
	}
	return out
}

// Publish delivers the event to all publishers and joins any errors.
// One failing sink does not stop the others.
func (f *Fanout) Publish(ctx context.Context, event core.Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
