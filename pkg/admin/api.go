package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/getmockd/mockroute/internal/storage"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/logging"
	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/requestlog"
)

// ShutdownTimeout bounds graceful shutdown of the admin listener.
const ShutdownTimeout = 5 * time.Second

// Engine is the view of a running mock server the admin API needs.
// *engine.Server satisfies it.
type Engine interface {
	Store() storage.RouteStore
	Injector() *chaos.Injector
	RequestLog() requestlog.Store
	Metrics() *metrics.ServerMetrics
	ErrorPercentage() int
}

// API exposes the admin endpoints for one Engine.
type API struct {
	engine     Engine
	log        *slog.Logger
	version    string
	hostname   string
	port       int
	corsConfig CORSConfig
	handler    http.Handler

	mu         sync.RWMutex
	httpServer *http.Server
	listener   net.Listener
	running    bool
	startTime  time.Time
	serveErr   chan error
}

// NewAPI creates an admin API for eng that will listen on port.
func NewAPI(port int, eng Engine, opts ...Option) *API {
	a := &API{
		engine:     eng,
		log:        logging.Nop(),
		hostname:   "127.0.0.1",
		port:       port,
		corsConfig: DefaultCORSConfig(),
		startTime:  time.Now(),
	}
	for _, opt := range opts {
		opt(a)
	}

	mux := http.NewServeMux()
	a.registerRoutes(mux)
	a.handler = a.withMiddleware(mux)
	return a
}

// withMiddleware wraps the mux. Order, outermost first: security headers,
// CORS, request logging.
func (a *API) withMiddleware(h http.Handler) http.Handler {
	h = LoggingMiddleware(a.log)(h)
	h = CORSMiddleware(a.corsConfig)(h)
	return SecurityHeadersMiddleware(h)
}

// Handler returns the fully wrapped admin handler.
func (a *API) Handler() http.Handler { return a.handler }

// Start binds the admin listener and serves in the background.
func (a *API) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return errors.New("admin API is already running")
	}

	addr := net.JoinHostPort(a.hostname, strconv.Itoa(a.port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	a.listener = ln
	a.httpServer = &http.Server{
		Handler:      a.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(a.log.Handler(), slog.LevelWarn),
	}
	a.serveErr = make(chan error, 1)

	a.log.Info("starting admin API", "addr", ln.Addr().String())
	go func(srv *http.Server, errc chan<- error) {
		err := srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			a.log.Error("admin API error", "error", err)
		}
		errc <- err
	}(a.httpServer, a.serveErr)

	a.running = true
	a.startTime = time.Now()
	return nil
}

// Stop gracefully shuts down the admin listener.
func (a *API) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return a.httpServer.Shutdown(ctx)
}

// Run starts the API and blocks until ctx is cancelled or serving fails.
func (a *API) Run(ctx context.Context) error {
	if err := a.Start(); err != nil {
		return err
	}

	a.mu.RLock()
	errc := a.serveErr
	a.mu.RUnlock()

	select {
	case <-ctx.Done():
		return a.Stop()
	case err := <-errc:
		_ = a.Stop()
		return err
	}
}

// Addr returns the bound address, or the configured one before Start.
func (a *API) Addr() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.listener != nil && a.running {
		return a.listener.Addr().String()
	}
	return net.JoinHostPort(a.hostname, strconv.Itoa(a.port))
}

// Uptime returns the API uptime in seconds.
func (a *API) Uptime() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return int(time.Since(a.startTime).Seconds())
}
