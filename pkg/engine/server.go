package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/getmockd/mockroute/internal/storage"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/logging"
	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/requestlog"
)

// ShutdownTimeout bounds how long Stop waits for in-flight requests.
const ShutdownTimeout = 30 * time.Second

// Server serves one route table on one listener.
type Server struct {
	cfg        *config.ServerConfig
	store      storage.RouteStore
	injector   *chaos.Injector
	dispatcher *Dispatcher
	mutator    *Mutator
	handler    *Handler
	requestLog requestlog.Store
	metrics    *metrics.ServerMetrics
	log        *slog.Logger

	httpHandler http.Handler // handler wrapped with middleware

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
	startTime  time.Time
	serveErr   chan error
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithInjector sets the error injector. Use it with chaos.WithSource for
// reproducible runs.
func WithInjector(inj *chaos.Injector) ServerOption {
	return func(s *Server) {
		if inj != nil {
			s.injector = inj
		}
	}
}

// WithStore sets the route table backend.
func WithStore(store storage.RouteStore) ServerOption {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// WithMetrics sets the metrics the server records to.
func WithMetrics(m *metrics.ServerMetrics) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithRequestLog sets the request history store.
func WithRequestLog(store requestlog.Store) ServerOption {
	return func(s *Server) {
		if store != nil {
			s.requestLog = store
		}
	}
}

// NewServer creates a Server and loads cfg.Routes into its route table.
// A nil cfg serves an empty table on the default address.
func NewServer(cfg *config.ServerConfig, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	s := &Server{
		cfg: cfg,
		log: logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = storage.NewInMemoryRouteStore()
	}
	if s.injector == nil {
		s.injector = chaos.NewInjector()
	}
	if s.metrics == nil {
		s.metrics = metrics.NewServerMetrics(nil)
	}
	if s.requestLog == nil {
		s.requestLog = requestlog.NewMemoryStore(requestlog.DefaultCapacity)
	}

	s.store.UpsertBatch(cfg.RouteList())
	s.metrics.SetRoutes(s.store.Count())
	for _, r := range cfg.RouteList() {
		s.log.Info("loaded route", "method", r.Method, "path", r.Path, "code", r.Code, "error", r.Error)
	}
	s.log.Info("error percentage set", "error_percentage", cfg.ErrorPercentage)

	s.dispatcher = NewDispatcher(s.store, s.injector, cfg.ErrorPercentage)
	s.mutator = NewMutator(s.store,
		WithMutatorLogger(logging.Component(s.log, "mutator")),
		WithMutatorMetrics(s.metrics))
	s.handler = NewHandler(s.dispatcher, s.mutator, WithHandlerLogger(s.log))
	s.httpHandler = Chain(s.handler,
		RequestIDMiddleware,
		AccessLogMiddleware(logging.Component(s.log, "access")),
		MetricsMiddleware(s.metrics),
		HistoryMiddleware(s.requestLog),
	)

	return s
}

// Start binds the listener and serves in the background. Bind errors are
// returned synchronously.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("server is already running")
	}

	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Address(), err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.httpHandler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}
	s.serveErr = make(chan error, 1)

	s.log.Info("starting HTTP server", "addr", ln.Addr().String())
	go func(srv *http.Server, errc chan<- error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			s.log.Error("HTTP server error", "error", err)
		}
		errc <- err
	}(s.httpServer, s.serveErr)

	s.running = true
	s.startTime = time.Now()
	return nil
}

// Stop gracefully shuts down the server, waiting up to ShutdownTimeout for
// in-flight requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.running = false
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Run starts the server and blocks until ctx is cancelled or the server
// fails, then shuts it down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	s.mu.RLock()
	errc := s.serveErr
	s.mu.RUnlock()

	select {
	case <-ctx.Done():
		return s.Stop()
	case err := <-errc:
		return errors.Join(err, s.Stop())
	}
}

// Addr returns the bound listener address, or the configured address when
// the server is not running.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener != nil && s.running {
		return s.listener.Addr().String()
	}
	return s.cfg.Address()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}

// Handler returns the request handler wrapped with middleware.
func (s *Server) Handler() http.Handler { return s.httpHandler }

// Config returns the configuration the server was created with.
func (s *Server) Config() *config.ServerConfig { return s.cfg }

// Store returns the route table.
func (s *Server) Store() storage.RouteStore { return s.store }

// Injector returns the error injector.
func (s *Server) Injector() *chaos.Injector { return s.injector }

// Dispatcher returns the dispatcher.
func (s *Server) Dispatcher() *Dispatcher { return s.dispatcher }

// Mutator returns the route mutator.
func (s *Server) Mutator() *Mutator { return s.mutator }

// RequestLog returns the request history store.
func (s *Server) RequestLog() requestlog.Store { return s.requestLog }

// Metrics returns the server metrics.
func (s *Server) Metrics() *metrics.ServerMetrics { return s.metrics }

// ErrorPercentage returns the global error percentage.
func (s *Server) ErrorPercentage() int { return s.dispatcher.ErrorPercentage() }
