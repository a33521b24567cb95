package app

import (
	"context"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/editing"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/logging"
	"github.com/dshills/blockstorm/internal/manager"
	"github.com/dshills/blockstorm/internal/metrics"
	"github.com/dshills/blockstorm/internal/tool"
	"github.com/dshills/blockstorm/internal/tool/lua"
)

// bootstrapper initializes components in dependency order and tears down
// what was started when a later step fails.
type bootstrapper struct {
	app     *Application
	started []string
}

func newBootstrapper(app *Application) *bootstrapper {
	return &bootstrapper{app: app}
}

func (b *bootstrapper) bootstrap() error {
	steps := []struct {
		name string
		fn   func() error
	}{
		{"event bus", b.initEventBus},
		{"tools", b.initTools},
		{"blocks", b.initBlocks},
		{"metrics", b.initMetrics},
		{"subscriptions", b.initSubscriptions},
		{"config watcher", b.initConfigWatcher},
		{"document", b.initDocument},
	}
	for _, step := range steps {
		if err := step.fn(); err != nil {
			b.cleanup()
			return &InitError{Component: step.name, Err: err}
		}
		b.started = append(b.started, step.name)
		b.app.logger.Debug("component started", zap.String("component", step.name))
	}
	b.app.modified.Store(false)
	return nil
}

func (b *bootstrapper) initEventBus() error {
	cfg := b.app.cfg.Events
	logger := logging.Component(b.app.logger, "event")
	b.app.bus = event.NewBus(
		event.WithAsyncQueueSize(cfg.QueueSize),
		event.WithAsyncWorkerCount(cfg.Workers),
		event.WithErrorHandler(func(err error) {
			logger.Warn("event handler failed", zap.Error(err))
		}),
		event.WithPanicHandler(func(ev any, recovered any) {
			logger.Error("event handler panicked", zap.Any("panic", recovered))
		}),
	)
	return b.app.bus.Start()
}

func (b *bootstrapper) initTools() error {
	app := b.app
	app.tools = tool.NewBuiltinRegistry()

	if dir := app.cfg.Tools.ScriptDir; dir != "" {
		scripts, err := lua.LoadDir(dir, lua.WithCallTimeout(app.cfg.Tools.CallTimeout))
		if err != nil {
			return err
		}
		for _, s := range scripts {
			if err := app.tools.Register(s); err != nil {
				for _, loaded := range scripts {
					loaded.Close()
				}
				return err
			}
		}
		app.scripts = scripts
		app.logger.Info("loaded script tools",
			zap.String("dir", dir), zap.Int("count", len(scripts)))
	}

	return app.tools.SetDefault(app.cfg.Editor.DefaultTool)
}

func (b *bootstrapper) initBlocks() error {
	app := b.app

	managerOpts := []manager.Option{
		manager.WithPublisher(app.bus),
		manager.WithLogger(logging.Component(app.logger, "manager")),
	}
	if app.opts.IDGenerator != nil {
		managerOpts = append(managerOpts, manager.WithIDGenerator(app.opts.IDGenerator))
	}
	app.blocks = manager.New(app.tools, managerOpts...)

	app.caret = caret.New(app.blocks,
		caret.WithPublisher(app.bus),
		caret.WithLogger(logging.Component(app.logger, "caret")),
	)

	app.toolbar = event.NewToolbarNotifier(app.bus, func() string {
		if cur := app.blocks.CurrentBlock(); cur != nil {
			return cur.ID()
		}
		return ""
	})

	app.editor = editing.New(app.blocks, app.caret,
		editing.WithToolbar(app.toolbar),
		editing.WithLogger(logging.Component(app.logger, "editing")),
		editing.WithSkipEmptyInputBlocks(app.cfg.Editor.SkipEmptyInputBlocks),
	)

	app.api = api.New(app.editor,
		api.WithToolbar(app.toolbar),
		api.WithLogger(logging.Component(app.logger, "api")),
	)

	return app.blocks.Clear(true)
}

func (b *bootstrapper) initMetrics() error {
	b.app.metrics = metrics.NewCollector()
	return b.app.metrics.Attach(b.app.bus)
}

func (b *bootstrapper) initSubscriptions() error {
	b.app.subs = newSubscriptionManager(b.app)
	return b.app.subs.setupSubscriptions()
}

func (b *bootstrapper) initConfigWatcher() error {
	app := b.app
	if !app.opts.WatchConfig || app.cfg.Path == "" {
		return nil
	}
	r, err := config.Watch(app.cfg.Path, app.onConfigReload)
	if err != nil {
		return err
	}
	app.reloader = r
	return nil
}

func (b *bootstrapper) initDocument() error {
	app := b.app
	if app.docPath == "" {
		return nil
	}
	if _, err := os.Stat(app.docPath); errors.Is(err, os.ErrNotExist) {
		app.logger.Info("document does not exist yet", zap.String("path", app.docPath))
		return nil
	}
	return app.open(context.Background(), app.docPath)
}

// cleanup stops started components in reverse order.
func (b *bootstrapper) cleanup() {
	app := b.app
	for i := len(b.started) - 1; i >= 0; i-- {
		switch b.started[i] {
		case "event bus":
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			_ = app.bus.Stop(ctx)
			cancel()
		case "tools":
			for _, s := range app.scripts {
				s.Close()
			}
		case "metrics":
			app.metrics.Detach(app.bus)
		case "subscriptions":
			app.subs.cleanup()
		case "config watcher":
			if app.reloader != nil {
				_ = app.reloader.Close()
			}
		}
	}
}
