package engine

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockroute/internal/storage"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/requestlog"
	"github.com/getmockd/mockroute/pkg/route"
)

func testConfig(routes ...route.Route) *config.ServerConfig {
	cfg := config.DefaultConfig()
	cfg.Hostname = "127.0.0.1"
	cfg.Port = 0
	for _, r := range routes {
		cfg.Routes[r.Path] = r
	}
	return cfg
}

// ============================================================================
// Server Creation Tests
// ============================================================================

func TestNewServer(t *testing.T) {
	t.Parallel()

	t.Run("nil config uses defaults", func(t *testing.T) {
		t.Parallel()
		srv := NewServer(nil)
		require.NotNil(t, srv)
		assert.Equal(t, "0.0.0.0:8080", srv.Addr())
		assert.NotNil(t, srv.Store())
		assert.NotNil(t, srv.Injector())
		assert.NotNil(t, srv.Mutator())
		assert.NotNil(t, srv.RequestLog())
		assert.NotNil(t, srv.Metrics())
		assert.False(t, srv.IsRunning())
		assert.Zero(t, srv.Uptime())
	})

	t.Run("loads configured routes", func(t *testing.T) {
		t.Parallel()
		srv := NewServer(testConfig(greetRoute(), route.Route{Method: "DELETE", Path: "/d", Code: 204}))
		assert.Equal(t, 2, srv.Store().Count())
		assert.Equal(t, float64(2), srv.Metrics().Routes.Value())
	})

	t.Run("options override defaults", func(t *testing.T) {
		t.Parallel()
		store := storage.NewInMemoryRouteStore()
		inj := chaos.NewInjector()
		sm := metrics.NewServerMetrics(nil)
		log := requestlog.NewMemoryStore(5)

		srv := NewServer(testConfig(greetRoute()),
			WithStore(store), WithInjector(inj), WithMetrics(sm), WithRequestLog(log), WithLogger(nil))

		assert.Same(t, store, srv.Store())
		assert.Same(t, inj, srv.Injector())
		assert.Same(t, sm, srv.Metrics())
		assert.Same(t, log, srv.RequestLog())
		assert.NotNil(t, srv.log)
		assert.Equal(t, 1, store.Count())
	})
}

// ============================================================================
// Lifecycle
// ============================================================================

func TestServer_StartStop(t *testing.T) {
	t.Parallel()

	srv := NewServer(testConfig(greetRoute()))
	require.NoError(t, srv.Start())
	defer func() { _ = srv.Stop() }()

	assert.True(t, srv.IsRunning())
	assert.Error(t, srv.Start(), "second Start fails")

	resp, err := http.Get("http://" + srv.Addr() + "/greet")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "hi", string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	require.NoError(t, srv.Stop())
	assert.False(t, srv.IsRunning())
	assert.NoError(t, srv.Stop(), "Stop is idempotent")
}

func TestServer_StartBindError(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = ln.Close() }()

	cfg := testConfig()
	cfg.Port = ln.Addr().(*net.TCPAddr).Port

	srv := NewServer(cfg)
	assert.Error(t, srv.Start())
	assert.False(t, srv.IsRunning())
}

func TestServer_Run(t *testing.T) {
	t.Parallel()

	srv := NewServer(testConfig())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post("http://"+srv.Addr()+"/routes", "application/json",
		strings.NewReader(`[{"path":"/live","response":"yes"}]`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 1, srv.Store().Count())
	assert.Equal(t, 1, srv.RequestLog().Count())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, srv.IsRunning())
}

func TestServer_RunReturnsServeError(t *testing.T) {
	t.Parallel()

	srv := NewServer(testConfig())
	done := make(chan error, 1)
	go func() { done <- srv.Run(context.Background()) }()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 10*time.Millisecond)

	srv.mu.RLock()
	ln := srv.listener
	srv.mu.RUnlock()
	require.NoError(t, ln.Close())

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, net.ErrClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after the listener failed")
	}
	assert.False(t, srv.IsRunning())
}
