package events

import "time"

type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates to collect events until the unit of work stores them.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event == nil {
		return
	}
	r.pending = append(r.pending, event)
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	out := make([]DomainEvent, len(r.pending))
	copy(out, r.pending)
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}

// Drain returns pending events and clears them.
func (r *EventRecorder) Drain() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

// Source is implemented by anything embedding EventRecorder.
type Source interface {
	Drain() []DomainEvent
}

// Collect drains every source in order.
func Collect(sources ...Source) []DomainEvent {
	var out []DomainEvent
	for _, s := range sources {
		if s == nil {
			continue
		}
		out = append(out, s.Drain()...)
	}
	return out
}
