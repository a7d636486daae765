// Package server exposes the iceberg pipeline and its side figures over
// HTTP.
//
// Routes are declared once in a static table (see [Server.Routes]); each
// entry carries a stable name used for metrics labels and access logs.
// Handlers return errors, which are written as JSON {code, message} with
// the status mapped from the error code.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/icebergviz/pkg/config"
	"github.com/matzehuels/icebergviz/pkg/pipeline"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	Config   *config.Config
	Runner   *pipeline.Runner
	Figures  *pipeline.Figures
	Logger   *log.Logger
	Gatherer prometheus.Gatherer
}

// New creates a Server. A nil gatherer serves the default Prometheus
// registry on /metrics.
func New(cfg *config.Config, runner *pipeline.Runner, figures *pipeline.Figures, logger *log.Logger, gatherer prometheus.Gatherer) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &Server{
		Config:   cfg,
		Runner:   runner,
		Figures:  figures,
		Logger:   logger,
		Gatherer: gatherer,
	}
}

// Handler builds the chi router with middleware and every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.Config.Server.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))
	if s.Config.Server.RateLimit > 0 {
		r.Use(httprate.LimitByIP(s.Config.Server.RateLimit, s.Config.Server.RateWindow.Duration))
	}

	for _, rt := range s.Routes() {
		r.Method(rt.Method, rt.Pattern, s.instrument(rt))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, s.Logger, notFound(r.URL.Path))
	})
	return r
}

// Run listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Config.Server.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
