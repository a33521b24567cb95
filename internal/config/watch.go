package config

import (
	"time"

	"github.com/dshills/blockstorm/internal/config/watcher"
)

// Reloader watches a configuration file and reloads it on change.
type Reloader struct {
	w *watcher.Watcher
}

// Watch reloads the file at path whenever it changes. onReload receives the
// new Config, or the error when the file no longer loads; the previous
// Config stays in effect in that case. opts are applied to every reload.
func Watch(path string, onReload func(*Config, error), opts ...Option) (*Reloader, error) {
	w, err := watcher.New(watcher.WithDebounce(150 * time.Millisecond))
	if err != nil {
		return nil, err
	}
	w.OnChange(func(ev watcher.Event) {
		cfg, err := Load(path, opts...)
		onReload(cfg, err)
	})
	if err := w.Watch(path); err != nil {
		_ = w.Close()
		return nil, err
	}
	return &Reloader{w: w}, nil
}

// Close stops watching.
func (r *Reloader) Close() error {
	return r.w.Close()
}
