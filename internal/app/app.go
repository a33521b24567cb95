package app

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/editing"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/manager"
	"github.com/dshills/blockstorm/internal/metrics"
	"github.com/dshills/blockstorm/internal/tool"
	"github.com/dshills/blockstorm/internal/tool/lua"
)

// Options configures New.
type Options struct {
	// Config is the loaded configuration. config.Default() when nil.
	Config *config.Config

	// Logger receives component logs. zap.NewNop() when nil.
	Logger *zap.Logger

	// DocumentPath is opened after startup when set and existing.
	DocumentPath string

	// WatchConfig reloads Config.Path when it changes.
	WatchConfig bool

	// IDGenerator overrides block id generation, for tests.
	IDGenerator func() string
}

// Application is one editing session.
type Application struct {
	// mu serializes gestures and api calls.
	mu sync.Mutex

	cfg    *config.Config
	logger *zap.Logger

	bus      event.Bus
	tools    *tool.Registry
	scripts  []*lua.Tool
	blocks   *manager.Manager
	caret    *caret.Caret
	editor   *editing.Editor
	api      *api.Blocks
	toolbar  *event.ToolbarNotifier
	metrics  *metrics.Collector
	reloader *config.Reloader
	subs     *subscriptionManager

	docPath  string
	modified atomic.Bool
	closed   atomic.Bool

	opts Options
}

// New creates and starts an application.
func New(opts Options) (*Application, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app := &Application{
		cfg:     opts.Config,
		logger:  opts.Logger,
		docPath: opts.DocumentPath,
		opts:    opts,
	}
	if err := newBootstrapper(app).bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// Do runs fn with exclusive access to the block api. Every front end call
// goes through Do so gestures never interleave.
func (app *Application) Do(fn func(b *api.Blocks) error) error {
	if app.closed.Load() {
		return ErrClosed
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	return fn(app.api)
}

// Gesture runs a gesture under the session lock, waits for any merge it
// started and counts its outcome. A merge is always awaited, even after ctx
// ends; the result reports the merge outcome.
func (app *Application) Gesture(ctx context.Context, name string, fn func(e *editing.Editor) editing.Result) editing.Result {
	if app.closed.Load() {
		return editing.Result{Status: editing.StatusError, Err: ErrClosed}
	}
	app.mu.Lock()
	defer app.mu.Unlock()

	res := fn(app.editor)
	if res.Pending != nil {
		// Merges cannot be cancelled. The lock is held until the merge settles
		// so no other edit runs against a half-merged collection.
		select {
		case <-res.Pending.Done():
		case <-ctx.Done():
			app.logger.Debug("gesture context ended during merge, waiting for completion",
				zap.String("gesture", name), zap.Error(ctx.Err()))
			<-res.Pending.Done()
		}
		b, err := res.Pending.Wait(context.WithoutCancel(ctx))
		res.Block, res.Err = b, err
		res.Status = editing.StatusOK
		if err != nil {
			res.Status = editing.StatusError
		}
		res.Pending = nil
	}
	app.metrics.ObserveGesture(name, res.Status.String())
	if res.Status == editing.StatusOK {
		app.modified.Store(true)
	}
	return res
}

// Config returns the active configuration.
func (app *Application) Config() *config.Config {
	app.mu.Lock()
	defer app.mu.Unlock()
	return app.cfg
}

// Logger returns the application logger.
func (app *Application) Logger() *zap.Logger {
	return app.logger
}

// EventBus returns the event bus.
func (app *Application) EventBus() event.Bus {
	return app.bus
}

// Tools returns the tool registry.
func (app *Application) Tools() *tool.Registry {
	return app.tools
}

// Metrics returns the metrics collector.
func (app *Application) Metrics() *metrics.Collector {
	return app.metrics
}

// Shutdown stops the config watcher, closes script tools and drains the
// event bus. It is safe to call more than once.
func (app *Application) Shutdown(ctx context.Context) error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	app.mu.Lock()
	defer app.mu.Unlock()

	var errs []error
	if app.reloader != nil {
		errs = append(errs, app.reloader.Close())
	}
	if app.subs != nil {
		app.subs.cleanup()
	}
	if app.metrics != nil {
		app.metrics.Detach(app.bus)
	}
	for _, s := range app.scripts {
		errs = append(errs, s.Close())
	}
	if app.bus != nil && app.bus.IsRunning() {
		errs = append(errs, app.bus.Stop(ctx))
	}
	_ = app.logger.Sync()
	return errors.Join(errs...)
}
