package server

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/dshills/blockstorm/internal/app"
	"github.com/dshills/blockstorm/internal/logging"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger. Defaults to the application's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAddr overrides the configured listen address.
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// Server serves one application over HTTP.
type Server struct {
	app    *app.Application
	logger *zap.Logger
	addr   string
	router chi.Router
}

// New creates a server for application.
func New(application *app.Application, opts ...Option) *Server {
	s := &Server{
		app:    application,
		logger: logging.Component(application.Logger(), "server"),
		addr:   application.Config().Server.Addr,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))
	r.Use(instrument(s.app.Metrics()))

	r.Get("/health", s.health)
	r.Handle("/metrics", s.app.Metrics().Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/blocks", func(r chi.Router) {
			h := &blocksHandler{app: s.app}
			r.Get("/", h.list)
			r.Post("/", h.insert)
			r.Delete("/", h.clear)
			r.Post("/move", h.move)
			r.Post("/swap", h.swap)
			r.Get("/{index}", h.getByIndex)
			r.Delete("/{index}", h.deleteByIndex)
			r.Put("/{index}/stretched", h.stretch)

			r.Route("/id/{id}", func(r chi.Router) {
				r.Get("/", h.getByID)
				r.Put("/", h.updateByID)
				r.Delete("/", h.deleteByID)
				r.Post("/move", h.moveByID)
				r.Get("/field", h.field)
				r.Patch("/field", h.updateField)
			})

			r.Post("/render", h.render)
			r.Post("/render/html", h.renderHTML)
			r.Post("/render/markdown", h.renderMarkdown)

			r.Post("/caret", h.setCaret)
			r.Post("/text", h.insertText)
			r.Post("/keys/{gesture}", h.gesture)
		})

		r.Route("/document", func(r chi.Router) {
			h := &documentHandler{app: s.app}
			r.Get("/", h.get)
			r.Post("/save", h.save)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"modified": s.app.IsModified(),
	})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully
// within the configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	cfg := s.app.Config().Server
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", s.addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
