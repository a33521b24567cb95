package config

import "time"

// Section structs are snapshots. Mutating one does not change the Config it
// came from.

// EditorConfig controls the editing core.
type EditorConfig struct {
	// DefaultTool is the tool used for new blocks.
	DefaultTool string `validate:"required"`

	// SkipEmptyInputBlocks makes Backspace in an empty block delete a
	// preceding block without inputs (an image, a delimiter) first.
	SkipEmptyInputBlocks bool

	// Autofocus puts the caret in the first block after rendering.
	Autofocus bool
}

// ToolsConfig controls tool loading.
type ToolsConfig struct {
	// ScriptDir holds Lua tool scripts. Empty disables script tools.
	ScriptDir string

	// CallTimeout bounds each call into a script tool.
	CallTimeout time.Duration `validate:"gt=0"`
}

// ServerConfig controls the HTTP api.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `validate:"required"`

	// ReadTimeout bounds reading a request.
	ReadTimeout time.Duration `validate:"gte=0"`

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `validate:"gte=0"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `validate:"gte=0"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `validate:"oneof=debug info warn error"`

	// Format is console or json.
	Format string `validate:"oneof=console json"`

	// Development enables zap's development mode.
	Development bool

	// File, when set, receives log output instead of stderr.
	File string
}

// EventsConfig sizes the event bus.
type EventsConfig struct {
	// QueueSize is the async delivery queue length.
	QueueSize int `validate:"gte=1"`

	// Workers is the number of async delivery goroutines.
	Workers int `validate:"gte=1,lte=64"`
}

// Defaults returns the built-in configuration tree.
func Defaults() map[string]any {
	return map[string]any{
		"editor": map[string]any{
			"defaultTool":          "paragraph",
			"skipEmptyInputBlocks": true,
			"autofocus":            true,
		},
		"tools": map[string]any{
			"scriptDir":   "",
			"callTimeout": "250ms",
		},
		"server": map[string]any{
			"addr":            ":8080",
			"readTimeout":     "10s",
			"writeTimeout":    "10s",
			"shutdownTimeout": "5s",
		},
		"log": map[string]any{
			"level":       "info",
			"format":      "json",
			"development": false,
			"file":        "",
		},
		"events": map[string]any{
			"queueSize": 1024,
			"workers":   2,
		},
	}
}
