package event

import (
	"errors"
	"fmt"

	"github.com/dshills/blockstorm/internal/event/topic"
)

var (
	ErrBusNotRunning     = errors.New("event bus is not running")
	ErrBusAlreadyRunning = errors.New("event bus is already running")
	ErrQueueFull         = errors.New("event queue is full")

	// ErrInvalidEvent is returned for values that are not an Event.
	ErrInvalidEvent = errors.New("invalid event")
	ErrInvalidTopic = errors.New("invalid topic")
	ErrNilHandler   = errors.New("nil handler")

	// ErrHandlerPanic is wrapped by the DeliveryError of a panicking handler.
	ErrHandlerPanic = errors.New("handler panicked")
)

// DeliveryError is a handler failure on one subscription.
type DeliveryError struct {
	Subscription string
	Topic        topic.Topic
	Err          error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver %s to %s: %v", e.Topic, e.Subscription, e.Err)
}

// Unwrap returns the handler's error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}
