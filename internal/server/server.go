// Package server wires the activity handlers into an HTTP server.
package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"mergington-activities/internal/activities"
	"mergington-activities/internal/audit"
	"mergington-activities/internal/common/config"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/common/metrics"
	"mergington-activities/internal/common/observability"
	listactivities "mergington-activities/internal/handlers/activities/list-activities"
	"mergington-activities/internal/handlers/activities/signup"
	"mergington-activities/internal/handlers/activities/unregister"
	"mergington-activities/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecentEvents is implemented by *audit.RedisSink.
type RecentEvents interface {
	Recent(ctx context.Context, limit int) ([]models.EnrollmentEvent, error)
}

type Options struct {
	Config      config.ServerConfig
	Registry    *activities.Registry
	Sink        audit.Sink
	SinkTimeout time.Duration
	Recent      RecentEvents
	Checks      []Check
	Obs         *observability.Observability
	// Metrics receives the roster collector. Nil means the default registry.
	Metrics *prometheus.Registry
	Logger  logger.Logger
}

type Server struct {
	opts       Options
	handler    http.Handler
	httpServer *http.Server
	logger     logger.Logger
}

func New(opts Options) (*Server, error) {
	if opts.Registry == nil {
		return nil, fmt.Errorf("server: registry is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	if opts.Sink == nil {
		opts.Sink = audit.Nop{}
	}
	if opts.Obs == nil {
		opts.Obs = observability.NewNoop()
	}

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if opts.Metrics != nil {
		registerer = opts.Metrics
		gatherer = prometheus.Gatherers{opts.Metrics, prometheus.DefaultGatherer}
	}
	if err := registerer.Register(metrics.NewRosterCollector(opts.Registry)); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !stderrors.As(err, &already) {
			return nil, fmt.Errorf("register roster collector: %w", err)
		}
	}

	s := &Server{
		opts:   opts,
		logger: opts.Logger.WithFields(map[string]interface{}{"component": "http"}),
	}

	mux := http.NewServeMux()
	s.routes(mux, gatherer)
	s.handler = requestID(accessLog(s.logger, recoverPanic(s.logger, mux)))

	s.httpServer = &http.Server{
		Addr:         opts.Config.Address,
		Handler:      s.handler,
		ReadTimeout:  config.GetDuration(opts.Config.ReadTimeout),
		WriteTimeout: config.GetDuration(opts.Config.WriteTimeout),
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	list := listactivities.NewHandler(listactivities.LoadConfig(), s.opts.Registry, s.opts.Logger)
	join := signup.NewHandler(&signup.Config{SinkTimeout: s.opts.SinkTimeout}, s.opts.Registry, s.opts.Sink, s.opts.Obs, s.opts.Logger)
	leave := unregister.NewHandler(&unregister.Config{SinkTimeout: s.opts.SinkTimeout}, s.opts.Registry, s.opts.Sink, s.opts.Obs, s.opts.Logger)

	mux.Handle("GET /activities", list)
	mux.HandleFunc("GET /activities/{name}", list.ServeActivity)
	mux.Handle("POST /activities/{name}/signup", join)
	mux.Handle("DELETE /activities/{name}/signup", leave)

	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	if s.opts.Recent != nil {
		mux.HandleFunc("GET /enrollments/recent", s.recentEnrollments)
	}

	if dir := s.opts.Config.StaticDir; dir != "" {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(dir))))
		mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/static/", http.StatusTemporaryRedirect)
		})
	}
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run listens on the configured address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Config.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.opts.Config.Address, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	s.logger.Info("server listening", map[string]interface{}{
		"address": ln.Addr().String(),
	})

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutdown signal received, draining connections", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(s.opts.Config.ShutdownTimeout))
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}

	s.logger.Info("server stopped gracefully", nil)
	return nil
}
