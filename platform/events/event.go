// Package events defines the in-process event contracts the conversation
// pipeline publishes on: advancing a conversation, completing a reportback,
// or failing a submission each raise an event that other modules (alerts,
// auditing) subscribe to without the pipeline knowing about them.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName identifies the event type; subscriptions key on it.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the timestamp shared by all events; embed it and add
// the event's own fields.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a BaseEvent with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler consumes events of one subscribed type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus fans events out to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler subscribed to its name.
	// Delivery is asynchronous; a slow or failing handler never blocks the
	// publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event inline and waits for every handler.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, as returned by
	// Event.EventName.
	Subscribe(eventName string, handler Handler)
}
