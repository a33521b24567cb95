package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
	"time"

	"github.com/dshills/blockstorm/internal/config/loader"
)

func noEnv() Option {
	return WithEnv(loader.NewEnvLoaderFrom(loader.DefaultEnvPrefix, nil))
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Editor.DefaultTool != "paragraph" {
		t.Errorf("DefaultTool = %q", cfg.Editor.DefaultTool)
	}
	if !cfg.Editor.SkipEmptyInputBlocks {
		t.Error("SkipEmptyInputBlocks should default to true")
	}
	if cfg.Tools.CallTimeout != 250*time.Millisecond {
		t.Errorf("CallTimeout = %v", cfg.Tools.CallTimeout)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Addr = %q", cfg.Server.Addr)
	}
	if cfg.Events.QueueSize != 1024 || cfg.Events.Workers != 2 {
		t.Errorf("Events = %+v", cfg.Events)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load("absent.toml", WithFileSystem(loader.FS{FS: fstest.MapFS{}}), noEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if cfg.Path != "absent.toml" {
		t.Errorf("Path = %q", cfg.Path)
	}
}

func TestLoadLayers(t *testing.T) {
	fsys := loader.FS{FS: fstest.MapFS{
		"blockstorm.toml": {Data: []byte(`
[editor]
defaultTool = "header"
skipEmptyInputBlocks = false

[log]
level = "debug"
format = "console"

[events]
workers = 4
`)},
	}}
	env := loader.NewEnvLoaderFrom(loader.DefaultEnvPrefix, []string{
		"BLOCKSTORM_LOG_LEVEL=warn",
	})

	cfg, err := Load("blockstorm.toml",
		WithFileSystem(fsys),
		WithEnv(env),
		WithOverride("server.addr", "127.0.0.1:0"),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Editor.DefaultTool != "header" {
		t.Errorf("DefaultTool = %q, want header (file)", cfg.Editor.DefaultTool)
	}
	if cfg.Editor.SkipEmptyInputBlocks {
		t.Error("SkipEmptyInputBlocks = true, want false (file)")
	}
	if !cfg.Editor.Autofocus {
		t.Error("Autofocus = false, want default true")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn (env beats file)", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Log.Format = %q", cfg.Log.Format)
	}
	if cfg.Events.Workers != 4 {
		t.Errorf("Workers = %d", cfg.Events.Workers)
	}
	if cfg.Server.Addr != "127.0.0.1:0" {
		t.Errorf("Addr = %q, want override", cfg.Server.Addr)
	}

	if v, ok := cfg.Get("editor.defaultTool"); !ok || v != "header" {
		t.Errorf("Get(editor.defaultTool) = %v, %v", v, ok)
	}
}

func TestLoadTypeMismatch(t *testing.T) {
	fsys := loader.FS{FS: fstest.MapFS{
		"c.toml": {Data: []byte("[editor]\ndefaultTool = 3\n")},
	}}

	_, err := Load("c.toml", WithFileSystem(fsys), noEnv())
	var te *TypeError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want *TypeError", err)
	}
	if te.Path != "editor.defaultTool" {
		t.Errorf("Path = %q", te.Path)
	}
	if !errors.Is(err, ErrTypeMismatch) {
		t.Error("errors.Is(err, ErrTypeMismatch) = false")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		toml string
	}{
		{"empty default tool", "[editor]\ndefaultTool = \"\"\n"},
		{"bad level", "[log]\nlevel = \"loud\"\n"},
		{"bad format", "[log]\nformat = \"xml\"\n"},
		{"no workers", "[events]\nworkers = 0\n"},
		{"zero timeout", "[tools]\ncallTimeout = \"0s\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := loader.FS{FS: fstest.MapFS{"c.toml": {Data: []byte(tt.toml)}}}
			_, err := Load("c.toml", WithFileSystem(fsys), noEnv())
			if !errors.Is(err, ErrValidationFailed) {
				t.Fatalf("err = %v, want ErrValidationFailed", err)
			}
		})
	}
}

func TestLoadDurationForms(t *testing.T) {
	fsys := loader.FS{FS: fstest.MapFS{
		"c.toml": {Data: []byte("[tools]\ncallTimeout = 500\n[server]\nreadTimeout = \"2s\"\n")},
	}}

	cfg, err := Load("c.toml", WithFileSystem(fsys), noEnv())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Tools.CallTimeout != 500*time.Millisecond {
		t.Errorf("CallTimeout = %v", cfg.Tools.CallTimeout)
	}
	if cfg.Server.ReadTimeout != 2*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, DefaultFile)
	if err := os.WriteFile(path, []byte("[editor]\ndefaultTool = \"paragraph\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	reloaded := make(chan *Config, 4)
	r, err := Watch(path, func(cfg *Config, err error) {
		if err == nil {
			reloaded <- cfg
		}
	}, noEnv())
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer r.Close()

	if err := os.WriteFile(path, []byte("[editor]\ndefaultTool = \"header\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Editor.DefaultTool != "header" {
			t.Errorf("DefaultTool = %q after reload", cfg.Editor.DefaultTool)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no reload")
	}
}
