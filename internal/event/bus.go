package event

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/dshills/blockstorm/internal/event/topic"
)

// Bus is the central event bus interface.
type Bus interface {
	Publisher

	// Publish sends an event using the default delivery mode (async).
	Publish(ctx context.Context, event any) error

	// Subscription
	Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error)
	SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error)
	Unsubscribe(sub Subscription)

	// Lifecycle
	Start() error
	Stop(ctx context.Context) error
	IsRunning() bool

	// Status
	Stats() Stats
}

// Stats reports bus counters.
type Stats struct {
	EventsPublished uint64
	EventsDelivered uint64
	EventsDropped   uint64
	HandlerErrors   uint64
	HandlerPanics   uint64
}

type asyncTask struct {
	ctx   context.Context
	event any
	subs  []*subscription
}

// bus is the default Bus implementation.
type bus struct {
	config busConfig

	// Subscriptions, kept sorted by priority.
	subsMu sync.RWMutex
	subs   []*subscription

	// Async queue. queueMu is held for reading while enqueueing and for
	// writing while the queue is opened or closed.
	queueMu sync.RWMutex
	queue   chan asyncTask
	running atomic.Bool
	wg      sync.WaitGroup

	eventsPublished atomic.Uint64
	eventsDelivered atomic.Uint64
	eventsDropped   atomic.Uint64
	handlerErrors   atomic.Uint64
	handlerPanics   atomic.Uint64
}

// NewBus creates a new event bus with the given options.
func NewBus(opts ...BusOption) Bus {
	config := defaultBusConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return &bus{config: config}
}

// Start starts the async workers.
func (b *bus) Start() error {
	b.queueMu.Lock()
	defer b.queueMu.Unlock()

	if b.running.Load() {
		return ErrBusAlreadyRunning
	}
	b.queue = make(chan asyncTask, b.config.asyncQueueSize)
	for i := 0; i < b.config.asyncWorkerCount; i++ {
		b.wg.Add(1)
		go b.worker(b.queue)
	}
	b.running.Store(true)
	return nil
}

// Stop closes the queue and waits for queued events to be delivered or for
// ctx to be done.
func (b *bus) Stop(ctx context.Context) error {
	b.queueMu.Lock()
	if !b.running.Swap(false) {
		b.queueMu.Unlock()
		return ErrBusNotRunning
	}
	close(b.queue)
	b.queueMu.Unlock()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsRunning returns true if the bus is running.
func (b *bus) IsRunning() bool {
	return b.running.Load()
}

// Subscribe registers handler for topics matching pattern.
func (b *bus) Subscribe(pattern topic.Topic, handler Handler, opts ...SubscriptionOption) (Subscription, error) {
	if handler == nil {
		return nil, ErrNilHandler
	}
	if !pattern.IsValid() {
		return nil, ErrInvalidTopic
	}

	config := SubscriptionConfig{Priority: PriorityNormal}
	for _, opt := range opts {
		opt(&config)
	}
	sub := newSubscription(pattern, handler, config)

	b.subsMu.Lock()
	b.subs = append(b.subs, sub)
	sort.SliceStable(b.subs, func(i, j int) bool {
		return b.subs[i].config.Priority < b.subs[j].config.Priority
	})
	b.subsMu.Unlock()

	return sub, nil
}

// SubscribeFunc registers a function handler.
func (b *bus) SubscribeFunc(pattern topic.Topic, fn HandlerFunc, opts ...SubscriptionOption) (Subscription, error) {
	if fn == nil {
		return nil, ErrNilHandler
	}
	return b.Subscribe(pattern, fn, opts...)
}

// Unsubscribe cancels and removes sub.
func (b *bus) Unsubscribe(sub Subscription) {
	if sub == nil {
		return
	}
	sub.Cancel()

	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	for i, s := range b.subs {
		if s.id == sub.ID() {
			b.subs = append(b.subs[:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish sends an event asynchronously.
func (b *bus) Publish(ctx context.Context, event any) error {
	return b.PublishAsync(ctx, event)
}

// PublishSync delivers event to every matching subscription in the calling
// goroutine, regardless of delivery mode.
func (b *bus) PublishSync(ctx context.Context, event any) error {
	t, err := eventTopic(event)
	if err != nil {
		return err
	}
	b.eventsPublished.Add(1)

	var errs []error
	for _, sub := range b.match(t) {
		if err := b.deliver(ctx, sub, event, t); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishAsync delivers event to sync subscriptions immediately and queues
// it for async subscriptions. It does not wait for async handlers.
func (b *bus) PublishAsync(ctx context.Context, event any) error {
	t, err := eventTopic(event)
	if err != nil {
		return err
	}

	b.queueMu.RLock()
	defer b.queueMu.RUnlock()
	if !b.running.Load() {
		return ErrBusNotRunning
	}
	b.eventsPublished.Add(1)

	var async []*subscription
	for _, sub := range b.match(t) {
		if sub.config.DeliveryMode == DeliverySync {
			if err := b.deliver(ctx, sub, event, t); err != nil {
				b.reportError(err)
			}
			continue
		}
		async = append(async, sub)
	}
	if len(async) == 0 {
		return nil
	}

	select {
	case b.queue <- asyncTask{ctx: context.WithoutCancel(ctx), event: event, subs: async}:
		return nil
	default:
		b.eventsDropped.Add(1)
		return ErrQueueFull
	}
}

// Stats returns the bus counters.
func (b *bus) Stats() Stats {
	return Stats{
		EventsPublished: b.eventsPublished.Load(),
		EventsDelivered: b.eventsDelivered.Load(),
		EventsDropped:   b.eventsDropped.Load(),
		HandlerErrors:   b.handlerErrors.Load(),
		HandlerPanics:   b.handlerPanics.Load(),
	}
}

func (b *bus) worker(queue <-chan asyncTask) {
	defer b.wg.Done()
	for task := range queue {
		t, _ := eventTopic(task.event)
		for _, sub := range task.subs {
			if err := b.deliver(task.ctx, sub, task.event, t); err != nil {
				b.reportError(err)
			}
		}
	}
}

func (b *bus) match(t topic.Topic) []*subscription {
	b.subsMu.RLock()
	defer b.subsMu.RUnlock()

	var out []*subscription
	for _, sub := range b.subs {
		if sub.IsActive() && t.Matches(sub.pattern) {
			out = append(out, sub)
		}
	}
	return out
}

func (b *bus) deliver(ctx context.Context, sub *subscription, event any, t topic.Topic) (err error) {
	if !sub.IsActive() {
		return nil
	}
	if sub.config.Once && !sub.cancelled.CompareAndSwap(false, true) {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			b.handlerPanics.Add(1)
			if b.config.panicHandler != nil {
				b.config.panicHandler(event, r)
			}
			err = &DeliveryError{Subscription: sub.id, Topic: t, Err: ErrHandlerPanic}
		}
	}()

	if herr := sub.handler.Handle(ctx, event); herr != nil {
		b.handlerErrors.Add(1)
		return &DeliveryError{Subscription: sub.id, Topic: t, Err: herr}
	}
	b.eventsDelivered.Add(1)
	return nil
}

func (b *bus) reportError(err error) {
	if b.config.errorHandler != nil {
		b.config.errorHandler(err)
	}
}

func eventTopic(event any) (topic.Topic, error) {
	e, ok := event.(TopicProvider)
	if !ok || e.EventTopic() == "" {
		return "", ErrInvalidEvent
	}
	return e.EventTopic(), nil
}
