package testing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/getmockd/mockroute/pkg/admin/client"
	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/engine"
	"github.com/getmockd/mockroute/pkg/route"
)

// MockServer is a test helper for running mockroute in tests.
// It provides a fluent API for configuring routes and assertions.
type MockServer struct {
	t       testing.TB
	cfg     *config.ServerConfig
	seed    *uint64
	server  *engine.Server
	client  *client.Client // talks to PUT /routes once started
	httpSrv *httptest.Server
	routes  []route.Route
	mu      sync.Mutex
	started bool
	baseURL string
}

// Option configures a MockServer.
type Option func(*MockServer)

// WithErrorPercentage sets the chance that error routes and /errors inject
// an error status.
func WithErrorPercentage(pct int) Option {
	return func(m *MockServer) {
		m.cfg.ErrorPercentage = pct
	}
}

// WithSeed makes the error injector's draws reproducible.
func WithSeed(seed uint64) Option {
	return func(m *MockServer) {
		m.seed = &seed
	}
}

// New creates a new mock server for testing.
// The mock server will be automatically cleaned up when the test completes.
func New(t testing.TB, opts ...Option) *MockServer {
	t.Helper()
	m := &MockServer{
		t:   t,
		cfg: config.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(m)
	}
	t.Cleanup(m.Stop)
	return m
}

// Start starts the mock server and returns the base URL.
// Calling Start again returns the same URL.
func (m *MockServer) Start() string {
	m.t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return m.baseURL
	}

	for _, r := range m.routes {
		m.cfg.Routes[r.Path] = r
	}

	var opts []engine.ServerOption
	if m.seed != nil {
		opts = append(opts, engine.WithInjector(chaos.NewInjector(chaos.WithSource(chaos.NewSeededSource(*m.seed)))))
	}
	m.server = engine.NewServer(m.cfg, opts...)

	m.httpSrv = httptest.NewServer(m.server.Handler())
	m.baseURL = m.httpSrv.URL
	m.client = client.New(m.baseURL, client.WithHTTPClient(m.httpSrv.Client()))
	m.started = true

	return m.baseURL
}

// Stop stops the mock server. It is registered with t.Cleanup by New.
func (m *MockServer) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpSrv != nil {
		m.httpSrv.Close()
		m.httpSrv = nil
	}
	m.started = false
}

// URL returns the base URL of the mock server, or "" before Start.
func (m *MockServer) URL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.baseURL
}

// Route adds a route and returns a builder for configuring it. Nothing is
// registered until Reply is called.
//
// Example:
//
//	mock.Route("GET", "/users/123").
//	    WithStatus(200).
//	    WithBody(`{"id": "123"}`).
//	    Reply()
func (m *MockServer) Route(method, path string) *RouteBuilder {
	r := route.Defaults()
	r.Method = method
	r.Path = route.NormalizePath(path)
	return &RouteBuilder{server: m, route: r}
}

// addRoute registers r. Once started, the route is pushed over HTTP.
func (m *MockServer) addRoute(r route.Route) error {
	m.mu.Lock()
	started, c := m.started, m.client
	if !started {
		m.routes = append(m.routes, r)
	}
	m.mu.Unlock()

	if !started {
		return nil
	}
	data, err := json.Marshal([]route.Route{r})
	if err != nil {
		return err
	}
	return c.PushRoutes(context.Background(), data, "application/json")
}

// Reset removes every route, clears the request history and resets the
// injector counters. Use this between test cases to start fresh.
func (m *MockServer) Reset() {
	m.t.Helper()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = nil
	if m.server == nil {
		return
	}
	store := m.server.Store()
	for _, r := range store.List() {
		store.Delete(r.Path)
	}
	m.server.Metrics().SetRoutes(0)
	m.server.RequestLog().Clear()
	m.server.Injector().ResetStats()
}

// Requests returns all served requests, newest first.
func (m *MockServer) Requests() []RequestLog {
	m.mu.Lock()
	srv := m.server
	m.mu.Unlock()
	if srv == nil {
		return nil
	}

	entries := srv.RequestLog().List(nil)
	out := make([]RequestLog, len(entries))
	for i, e := range entries {
		out[i] = RequestLog{
			Method:      e.Method,
			Path:        e.Path,
			QueryString: e.QueryString,
			RequestID:   e.RequestID,
			Status:      e.ResponseStatus,
			Outcome:     e.Outcome,
			BodySize:    e.BodySize,
		}
	}
	return out
}

// AssertCalled asserts that an endpoint was called at least once.
func (m *MockServer) AssertCalled(t testing.TB, method, path string) {
	t.Helper()

	if m.countCalls(method, path) == 0 {
		t.Errorf("expected %s %s to be called, but it was not called", method, path)
	}
}

// AssertCalledTimes asserts that an endpoint was called exactly n times.
func (m *MockServer) AssertCalledTimes(t testing.TB, method, path string, times int) {
	t.Helper()

	count := m.countCalls(method, path)
	if count != times {
		t.Errorf("expected %s %s to be called %d times, but was called %d times",
			method, path, times, count)
	}
}

// AssertNotCalled asserts that an endpoint was not called.
func (m *MockServer) AssertNotCalled(t testing.TB, method, path string) {
	t.Helper()

	count := m.countCalls(method, path)
	if count > 0 {
		t.Errorf("expected %s %s to not be called, but it was called %d times",
			method, path, count)
	}
}

// InjectedCount returns how many responses carried an injected error status.
func (m *MockServer) InjectedCount() int {
	m.mu.Lock()
	srv := m.server
	m.mu.Unlock()
	if srv == nil {
		return 0
	}
	return int(srv.Injector().Stats().Injected)
}

func (m *MockServer) countCalls(method, path string) int {
	count := 0
	for _, r := range m.Requests() {
		if r.Method == method && matchesPath(r.Path, path) {
			count++
		}
	}
	return count
}

// matchesPath checks if a request path matches the expected path pattern.
// Segments written as {name} match any value.
func matchesPath(actual, expected string) bool {
	if actual == expected {
		return true
	}

	actualParts := strings.Split(actual, "/")
	expectedParts := strings.Split(expected, "/")
	if len(actualParts) != len(expectedParts) {
		return false
	}

	for i, exp := range expectedParts {
		if strings.HasPrefix(exp, "{") && strings.HasSuffix(exp, "}") {
			continue
		}
		if exp != actualParts[i] {
			return false
		}
	}
	return true
}

// Client returns an http.Client configured to work with the mock server.
func (m *MockServer) Client() *http.Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.httpSrv != nil {
		return m.httpSrv.Client()
	}
	return http.DefaultClient
}

// Server returns the underlying engine.Server for advanced use cases.
// It is nil before Start.
func (m *MockServer) Server() *engine.Server {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.server
}
