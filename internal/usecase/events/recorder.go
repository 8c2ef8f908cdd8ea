package events

import (
	"context"
	"sync"

	eventsv1 "github.com/muhammadchandra19/limit-order-engine/internal/domain/events/v1"
)

// Recorder collects published events in memory. Tests assert on it.
type Recorder struct {
	mu     sync.Mutex
	events []eventsv1.Event
}

// Publish implements eventsv1.Publisher.
func (r *Recorder) Publish(_ context.Context, event eventsv1.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []eventsv1.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]eventsv1.Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByKind returns the published events of one kind, in publish order.
func (r *Recorder) ByKind(kind eventsv1.Kind) []eventsv1.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []eventsv1.Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

var _ eventsv1.Publisher = (*Recorder)(nil)
