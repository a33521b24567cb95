package terminal

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/api"
	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/caret"
	"github.com/dshills/blockstorm/internal/event"
	"github.com/dshills/blockstorm/internal/logging"
)

// Terminal draws a session on a tcell screen and feeds it keys.
type Terminal struct {
	app    *app.Application
	screen tcell.Screen
	logger *zap.Logger

	// top is the first visible layout row.
	top int

	mu     sync.Mutex
	status string

	// plus is set when the editor asks for the block type picker.
	plus atomic.Bool

	subs []event.Subscription
}

// NewScreen returns the terminal's default screen.
func NewScreen() (tcell.Screen, error) {
	return tcell.NewScreen()
}

// New creates a front end for application on screen. The screen is
// initialized by Run.
func New(application *app.Application, screen tcell.Screen) *Terminal {
	return &Terminal{
		app:    application,
		screen: screen,
		logger: logging.Component(application.Logger(), "terminal"),
	}
}

// Run initializes the screen and processes events until Ctrl-Q or ctx is
// done. The screen is finalized on return.
func (t *Terminal) Run(ctx context.Context) error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	defer t.screen.Fini()
	t.screen.EnablePaste()

	if err := t.subscribe(); err != nil {
		return err
	}
	defer t.unsubscribe()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
		case <-done:
		}
	}()

	t.ensureCaret()
	t.draw()
	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}
		switch e := ev.(type) {
		case *tcell.EventResize:
			t.screen.Sync()
		case *tcell.EventKey:
			if err := t.handleKey(ctx, e); err != nil {
				if errors.Is(err, app.ErrQuit) {
					return nil
				}
				t.setStatus(err.Error())
			}
		case *tcell.EventInterrupt:
			if ctx.Err() != nil {
				return nil
			}
		}
		t.draw()
	}
}

func (t *Terminal) subscribe() error {
	sub, err := t.app.EventBus().SubscribeFunc(event.TopicToolbarPlusButton,
		func(context.Context, any) error {
			t.plus.Store(true)
			return t.screen.PostEvent(tcell.NewEventInterrupt(nil))
		},
		event.WithDeliveryMode(event.DeliveryAsync),
	)
	if err != nil {
		return err
	}
	t.subs = append(t.subs, sub)
	return nil
}

func (t *Terminal) unsubscribe() {
	for _, sub := range t.subs {
		t.app.EventBus().Unsubscribe(sub)
	}
	t.subs = nil
}

// ensureCaret puts the caret in the first block when it has none.
func (t *Terminal) ensureCaret() {
	_ = t.app.Do(func(b *api.Blocks) error {
		c := b.Editor().Caret()
		if c.Block() != nil {
			return nil
		}
		if first := b.BlockByIndex(0); first != nil {
			return c.SetToBlock(first.Block(), caret.Start, 0)
		}
		return nil
	})
}

func (t *Terminal) setStatus(msg string) {
	t.mu.Lock()
	t.status = msg
	t.mu.Unlock()
}

func (t *Terminal) statusMessage() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}
