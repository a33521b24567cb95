// Package metrics exposes Prometheus metrics for block operations.
//
// A Collector owns its own registry so several editors (and tests) can
// coexist in one process. It is fed from the event bus: every collection,
// caret and toolbar event increments a counter.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/event/topic"
)

// Namespace prefixes every metric name.
const Namespace = "blockstorm"

// Collector holds the blockstorm metrics.
type Collector struct {
	registry *prometheus.Registry

	BlockOperations *prometheus.CounterVec
	Blocks          prometheus.Gauge
	MergeDuration   prometheus.Histogram
	CaretMoves      prometheus.Counter
	ToolbarRequests *prometheus.CounterVec
	GestureResults  *prometheus.CounterVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	subs []event.Subscription
}

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		BlockOperations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "block_operations_total",
				Help:      "Structural block operations by kind.",
			},
			[]string{"op"},
		),
		Blocks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "blocks",
			Help:      "Number of blocks in the collection after the last change.",
		}),
		MergeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "merge_duration_seconds",
			Help:      "Time from merge request to completion.",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),
		CaretMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "caret_moves_total",
			Help:      "Caret placements.",
		}),
		ToolbarRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "toolbar_requests_total",
				Help:      "Toolbar notifications by kind.",
			},
			[]string{"kind"},
		),
		GestureResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "gestures_total",
				Help:      "Editing gestures by name and status.",
			},
			[]string{"gesture", "status"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	c.registry.MustRegister(
		c.BlockOperations,
		c.Blocks,
		c.MergeDuration,
		c.CaretMoves,
		c.ToolbarRequests,
		c.GestureResults,
		c.HTTPRequests,
		c.HTTPDuration,
	)
	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Attach subscribes the collector to bus. Handlers run at low priority
// so they observe events after UI subscribers.
func (c *Collector) Attach(bus event.Bus) error {
	patterns := []struct {
		pattern topic.Topic
		fn      event.HandlerFunc
	}{
		{"blocks.*", c.onBlockEvent},
		{event.TopicCaretMoved, c.onCaretEvent},
		{"toolbar.*", c.onToolbarEvent},
	}
	for _, p := range patterns {
		sub, err := bus.SubscribeFunc(p.pattern, p.fn, event.WithPriority(event.PriorityLow))
		if err != nil {
			c.Detach(bus)
			return err
		}
		c.subs = append(c.subs, sub)
	}
	return nil
}

// Detach removes the collector's subscriptions.
func (c *Collector) Detach(bus event.Bus) {
	for _, sub := range c.subs {
		bus.Unsubscribe(sub)
	}
	c.subs = nil
}

// ObserveGesture counts an editing gesture outcome.
func (c *Collector) ObserveGesture(gesture, status string) {
	c.GestureResults.WithLabelValues(gesture, status).Inc()
}

// ObserveHTTP records one HTTP request.
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) onBlockEvent(_ context.Context, ev any) error {
	e, ok := ev.(event.Event[event.BlockPayload])
	if !ok {
		return nil
	}
	c.BlockOperations.WithLabelValues(e.Type.Base()).Inc()
	c.Blocks.Set(float64(e.Payload.Count))
	if e.Type == event.TopicBlockMerged && e.Payload.Elapsed > 0 {
		c.MergeDuration.Observe(e.Payload.Elapsed.Seconds())
	}
	return nil
}

func (c *Collector) onCaretEvent(_ context.Context, ev any) error {
	if _, ok := ev.(event.Event[event.CaretPayload]); ok {
		c.CaretMoves.Inc()
	}
	return nil
}

func (c *Collector) onToolbarEvent(_ context.Context, ev any) error {
	if e, ok := ev.(event.Event[event.ToolbarPayload]); ok {
		c.ToolbarRequests.WithLabelValues(e.Type.Base()).Inc()
	}
	return nil
}
