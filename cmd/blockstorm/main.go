// Package main is the entry point for the Blockstorm block editor.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/config"
	"github.com/dshills/blockstorm/internal/logging"
	"github.com/dshills/blockstorm/internal/server"
	"github.com/dshills/blockstorm/internal/terminal"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type flags struct {
	configPath string
	docPath    string
	serve      bool
	addr       string
	logLevel   string
	watch      bool
}

func main() {
	os.Exit(run())
}

func run() int {
	f := parseFlags()

	var overrides []config.Option
	if f.logLevel != "" {
		overrides = append(overrides, config.WithOverride("log.level", f.logLevel))
	}
	if f.addr != "" {
		overrides = append(overrides, config.WithOverride("server.addr", f.addr))
	}
	cfg, err := config.Load(f.configPath, overrides...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}

	logger, err := newLogger(cfg.Log, f.serve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	application, err := app.New(app.Options{
		Config:       cfg,
		Logger:       logger,
		DocumentPath: f.docPath,
		WatchConfig:  f.watch && f.configPath != "",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := application.Shutdown(ctx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if f.serve {
		err = server.New(application).ListenAndServe(ctx)
	} else {
		err = runTerminal(ctx, application)
	}
	if err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runTerminal(ctx context.Context, application *app.Application) error {
	screen, err := terminal.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create terminal: %w", err)
	}
	return terminal.New(application, screen).Run(ctx)
}

// newLogger builds the process logger. The terminal front end owns stderr,
// so without a configured file it logs to a file in the temp directory.
func newLogger(cfg config.LogConfig, serve bool) (*zap.Logger, error) {
	opts := logging.Options{
		Level:       cfg.Level,
		Format:      logging.Format(cfg.Format),
		Development: cfg.Development,
	}
	switch {
	case cfg.File != "":
		opts.OutputPaths = []string{cfg.File}
	case !serve:
		opts.OutputPaths = []string{filepath.Join(os.TempDir(), "blockstorm.log")}
	}
	return logging.New(opts)
}

func parseFlags() flags {
	var f flags
	var showVersion bool
	var showHelp bool

	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.BoolVar(&f.serve, "serve", false, "Serve the HTTP api instead of the terminal editor")
	flag.StringVar(&f.addr, "addr", "", "HTTP listen address (overrides server.addr)")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.BoolVar(&f.watch, "watch", true, "Reload the configuration file when it changes")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Blockstorm - block-structured document editor\n\n")
		fmt.Fprintf(os.Stderr, "Usage: blockstorm [options] [document]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  blockstorm notes.json             Edit a document in the terminal\n")
		fmt.Fprintf(os.Stderr, "  blockstorm -serve notes.yaml      Serve a document over HTTP\n")
		fmt.Fprintf(os.Stderr, "  blockstorm -c blockstorm.toml     Use a configuration file\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("Blockstorm %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	switch flag.NArg() {
	case 0:
	case 1:
		f.docPath = flag.Arg(0)
	default:
		fmt.Fprintf(os.Stderr, "Error: expected at most one document, got %d\n", flag.NArg())
		os.Exit(1)
	}
	return f
}
