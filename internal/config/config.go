package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dshills/blockstorm/internal/config/loader"
)

// DefaultFile is the configuration file name looked up when none is given.
const DefaultFile = "blockstorm.toml"

// Config is a decoded, validated configuration.
type Config struct {
	Editor EditorConfig
	Tools  ToolsConfig
	Server ServerConfig
	Log    LogConfig
	Events EventsConfig

	// Path is the file the configuration was read from, if any.
	Path string

	tree map[string]any
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs        loader.FileSystem
	env       loader.Loader
	overrides map[string]any
}

// WithFileSystem reads the configuration file from fsys.
func WithFileSystem(fsys loader.FileSystem) Option {
	return func(o *options) {
		o.fs = fsys
	}
}

// WithEnv replaces the environment loader.
func WithEnv(env loader.Loader) Option {
	return func(o *options) {
		o.env = env
	}
}

// WithOverride sets a value above every other layer, such as a command
// line flag.
func WithOverride(path string, value any) Option {
	return func(o *options) {
		if o.overrides == nil {
			o.overrides = make(map[string]any)
		}
		loader.Set(o.overrides, path, value)
	}
}

// Load reads path (which may be empty or missing), applies the environment
// and overrides on top of the defaults, and validates the result.
func Load(path string, opts ...Option) (*Config, error) {
	o := options{
		fs:  loader.OSFS{},
		env: loader.NewEnvLoader(loader.DefaultEnvPrefix),
	}
	for _, opt := range opts {
		opt(&o)
	}

	tree := Defaults()

	file, err := loader.NewTOMLLoaderWithFS(o.fs, path).Load()
	if err != nil {
		return nil, err
	}
	tree = loader.DeepMerge(tree, file)

	if o.env != nil {
		env, err := o.env.Load()
		if err != nil {
			return nil, fmt.Errorf("loading environment: %w", err)
		}
		tree = loader.DeepMerge(tree, env)
	}
	tree = loader.DeepMerge(tree, o.overrides)

	cfg, err := decode(tree)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, err := decode(Defaults())
	if err != nil {
		panic(fmt.Sprintf("config: invalid defaults: %v", err))
	}
	return cfg
}

// Get returns the raw value at a dot separated path.
func (c *Config) Get(path string) (any, bool) {
	return loader.Lookup(c.tree, path)
}

// Validate checks the sections against their constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := &ValidationError{}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, fmt.Sprintf("%s failed %s=%s (value %v)",
			fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
	}
	return out
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func decode(tree map[string]any) (*Config, error) {
	d := decoder{tree: tree}
	cfg := &Config{
		Editor: EditorConfig{
			DefaultTool:          d.str("editor.defaultTool"),
			SkipEmptyInputBlocks: d.boolean("editor.skipEmptyInputBlocks"),
			Autofocus:            d.boolean("editor.autofocus"),
		},
		Tools: ToolsConfig{
			ScriptDir:   d.str("tools.scriptDir"),
			CallTimeout: d.duration("tools.callTimeout"),
		},
		Server: ServerConfig{
			Addr:            d.str("server.addr"),
			ReadTimeout:     d.duration("server.readTimeout"),
			WriteTimeout:    d.duration("server.writeTimeout"),
			ShutdownTimeout: d.duration("server.shutdownTimeout"),
		},
		Log: LogConfig{
			Level:       d.str("log.level"),
			Format:      d.str("log.format"),
			Development: d.boolean("log.development"),
			File:        d.str("log.file"),
		},
		Events: EventsConfig{
			QueueSize: d.integer("events.queueSize"),
			Workers:   d.integer("events.workers"),
		},
		tree: tree,
	}
	if d.err != nil {
		return nil, d.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decoder reads typed values from a tree, keeping the first error.
type decoder struct {
	tree map[string]any
	err  error
}

func (d *decoder) value(path string) any {
	v, _ := loader.Lookup(d.tree, path)
	return v
}

func (d *decoder) fail(path, expected string, v any) {
	if d.err == nil {
		d.err = &TypeError{Path: path, Expected: expected, Actual: typeName(v)}
	}
}

func (d *decoder) str(path string) string {
	switch v := d.value(path).(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		d.fail(path, "string", v)
		return ""
	}
}

func (d *decoder) boolean(path string) bool {
	switch v := d.value(path).(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		d.fail(path, "bool", v)
		return false
	}
}

func (d *decoder) integer(path string) int {
	switch v := d.value(path).(type) {
	case nil:
		return 0
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		d.fail(path, "int", v)
		return 0
	}
}

// duration accepts a Go duration string or an integer number of
// milliseconds.
func (d *decoder) duration(path string) time.Duration {
	switch v := d.value(path).(type) {
	case nil:
		return 0
	case time.Duration:
		return v
	case string:
		dur, err := time.ParseDuration(v)
		if err != nil {
			d.fail(path, "duration", v)
			return 0
		}
		return dur
	case int64:
		return time.Duration(v) * time.Millisecond
	case int:
		return time.Duration(v) * time.Millisecond
	default:
		d.fail(path, "duration", v)
		return 0
	}
}
