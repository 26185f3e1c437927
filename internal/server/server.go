// Package server serves the browser preview and JSON API for one graph.
//
// The page is embedded in the binary. Edits made through the API (or by a
// file watcher driving the same controller) are pushed to every open page
// over server-sent events; the page renders them with mermaid.js.
package server

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/flowsketch/pkg/controller"
	"github.com/matzehuels/flowsketch/pkg/observability"
	"github.com/matzehuels/flowsketch/pkg/pipeline"
)

//go:embed static
var staticFiles embed.FS

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 5 * time.Second

// Options configures a Server.
type Options struct {
	// Controller owns the graph. Required.
	Controller *controller.Controller
	// Runner renders image artifacts. Defaults to an uncached runner.
	Runner *pipeline.Runner
	Logger *log.Logger
	// Registry receives Prometheus collectors. Defaults to a new registry
	// with Go and process collectors. New registers the flowsketch metrics
	// on it and installs them as the global observability hooks, so one
	// registry must not back two servers.
	Registry *prometheus.Registry
}

// Server is the HTTP front end.
type Server struct {
	ctrl     *controller.Controller
	runner   *pipeline.Runner
	logger   *log.Logger
	registry *prometheus.Registry
	hub      *hub
	router   chi.Router
	cancel   func()
}

// New creates a server and subscribes it to the controller.
// Call Close to unsubscribe.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Runner == nil {
		opts.Runner = pipeline.NewRunner(nil, opts.Logger)
	}
	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
		opts.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	s := &Server{
		ctrl:     opts.Controller,
		runner:   opts.Runner,
		logger:   opts.Logger,
		registry: opts.Registry,
		hub:      newHub(opts.Logger),
	}
	observability.NewPrometheus(opts.Registry).Register()
	s.cancel = s.ctrl.Subscribe(s.hub)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(serverHeader)

	static, _ := fs.Sub(staticFiles, "static")
	r.Get("/", s.handleIndex(static))
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/graph", s.handleGetGraph)
		r.Put("/graph", s.handlePutGraph)
		r.Post("/vertices/{label}/toggle", s.handleToggle)
		r.Post("/reset", s.handleReset)
		r.Get("/definition", s.handleDefinition)
		r.Get("/diagram.svg", s.handleDiagramSVG)
		r.Get("/events", s.handleEvents)
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

// Registry returns the Prometheus registry backing /metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

// Close unsubscribes from the controller and disconnects event streams.
func (s *Server) Close() {
	s.cancel()
	s.hub.close()
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. ready, if non-nil, receives the bound address once listening.
func (s *Server) ListenAndServe(ctx context.Context, addr string, ready func(net.Addr)) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	if ready != nil {
		ready(ln.Addr())
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
