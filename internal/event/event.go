package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/blockstorm/internal/event/topic"
)

// Event is one notification on the bus. Publishers build it with NewEvent;
// handlers receive it as any and assert the payload type they subscribed
// for, e.g. Event[BlockPayload] for "blocks.*".
type Event[T any] struct {
	Type    topic.Topic
	Payload T

	// ID is unique per event.
	ID string
	// Time is when the event was built.
	Time time.Time
	// Source names the publishing component ("manager", "caret", "toolbar").
	Source string
}

// NewEvent stamps payload with an id and the current time.
func NewEvent[T any](t topic.Topic, payload T, source string) Event[T] {
	return Event[T]{
		Type:    t,
		Payload: payload,
		ID:      uuid.NewString(),
		Time:    time.Now(),
		Source:  source,
	}
}

// EventTopic returns the topic the event is published on.
func (e Event[T]) EventTopic() topic.Topic { return e.Type }

// TopicProvider is implemented by every Event. It lets the bus and
// subscribers route an event without knowing its payload type.
type TopicProvider interface {
	EventTopic() topic.Topic
}

// Priority orders handlers on one topic; lower runs first.
type Priority int

const (
	PriorityHigh   Priority = 100
	PriorityNormal Priority = 200
	// PriorityLow suits observers such as metrics.
	PriorityLow Priority = 300
)

// DeliveryMode selects where a handler runs.
type DeliveryMode int

const (
	// DeliveryAsync hands the event to a worker goroutine.
	DeliveryAsync DeliveryMode = iota
	// DeliverySync runs the handler before Publish returns.
	DeliverySync
)

func (m DeliveryMode) String() string {
	if m == DeliverySync {
		return "sync"
	}
	return "async"
}

// Handler receives events.
type Handler interface {
	Handle(ctx context.Context, event any) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event any) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, event any) error {
	return f(ctx, event)
}

// Publisher is what the block manager, caret and toolbar need from a Bus.
type Publisher interface {
	PublishSync(ctx context.Context, event any) error
	PublishAsync(ctx context.Context, event any) error
}

// PanicHandler observes a recovered handler panic.
type PanicHandler func(event any, recovered any)

// ErrorHandler observes errors from async deliveries.
type ErrorHandler func(err error)
