package app

import (
	"context"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/event/topic"
)

// subscriptionManager owns the application's own bus subscriptions.
type subscriptionManager struct {
	app  *Application
	subs []event.Subscription
}

func newSubscriptionManager(app *Application) *subscriptionManager {
	return &subscriptionManager{app: app}
}

func (sm *subscriptionManager) setupSubscriptions() error {
	entries := []struct {
		pattern topic.Topic
		fn      event.HandlerFunc
		mode    event.DeliveryMode
	}{
		// Sync so the flag is set before the mutating call returns.
		{"blocks.*", sm.handleBlockChange, event.DeliverySync},
		{"toolbar.*", sm.handleToolbar, event.DeliveryAsync},
	}
	for _, e := range entries {
		sub, err := sm.app.bus.SubscribeFunc(e.pattern, e.fn, event.WithDeliveryMode(e.mode))
		if err != nil {
			sm.cleanup()
			return err
		}
		sm.subs = append(sm.subs, sub)
	}
	return nil
}

func (sm *subscriptionManager) cleanup() {
	for _, sub := range sm.subs {
		sm.app.bus.Unsubscribe(sub)
	}
	sm.subs = nil
}

func (sm *subscriptionManager) handleBlockChange(_ context.Context, ev any) error {
	if e, ok := ev.(event.Event[event.BlockPayload]); ok {
		sm.app.modified.Store(true)
		sm.app.logger.Debug("block change",
			zap.String("topic", e.Type.String()),
			zap.String("id", e.Payload.ID),
			zap.Int("index", e.Payload.Index),
			zap.Int("count", e.Payload.Count),
		)
	}
	return nil
}

func (sm *subscriptionManager) handleToolbar(_ context.Context, ev any) error {
	if e, ok := ev.(event.Event[event.ToolbarPayload]); ok {
		sm.app.logger.Debug("toolbar request",
			zap.String("topic", e.Type.String()),
			zap.String("block", e.Payload.BlockID),
		)
	}
	return nil
}

// onConfigReload applies the settings that can change at runtime: the
// default tool and the backspace policy. Other sections take effect on
// restart.
func (app *Application) onConfigReload(cfg *config.Config, err error) {
	if err != nil {
		app.logger.Warn("config reload failed, keeping previous config", zap.Error(err))
		return
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	app.applyConfig(cfg)
}

func (app *Application) applyConfig(cfg *config.Config) {
	if err := app.tools.SetDefault(cfg.Editor.DefaultTool); err != nil {
		app.logger.Warn("ignoring default tool from reloaded config",
			zap.String("tool", cfg.Editor.DefaultTool), zap.Error(err))
		cfg.Editor.DefaultTool = app.tools.DefaultName()
	}
	app.editor.SetSkipEmptyInputBlocks(cfg.Editor.SkipEmptyInputBlocks)
	app.cfg = cfg
	app.logger.Info("config reloaded", zap.String("path", cfg.Path))
}
