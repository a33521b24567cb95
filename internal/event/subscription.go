package event

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/dshills/blockstorm/internal/event/topic"
)

// Subscription represents an active event subscription.
type Subscription interface {
	// ID returns the unique subscription identifier.
	ID() string

	// Topic returns the subscribed topic pattern.
	Topic() topic.Topic

	// IsActive returns true if the subscription can receive events.
	IsActive() bool

	// Cancel permanently cancels the subscription.
	Cancel()
}

type subscription struct {
	id        string
	pattern   topic.Topic
	handler   Handler
	config    SubscriptionConfig
	cancelled atomic.Bool
}

func newSubscription(pattern topic.Topic, handler Handler, config SubscriptionConfig) *subscription {
	return &subscription{
		id:      uuid.NewString(),
		pattern: pattern,
		handler: handler,
		config:  config,
	}
}

func (s *subscription) ID() string         { return s.id }
func (s *subscription) Topic() topic.Topic { return s.pattern }
func (s *subscription) IsActive() bool     { return !s.cancelled.Load() }
func (s *subscription) Cancel()            { s.cancelled.Store(true) }
