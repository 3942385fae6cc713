package engine

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/requestlog"
)

func TestChain_Order(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := Chain(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { order = append(order, "handler") }),
		mark("outer"), mark("inner"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"outer", "inner", "handler"}, order)
}

func TestRequestIDMiddleware(t *testing.T) {
	t.Parallel()

	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	}))

	t.Run("generates when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
		assert.Equal(t, rec.Header().Get(RequestIDHeader), seen)
	})

	t.Run("propagates client id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "abc-123")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
		assert.Equal(t, "abc-123", seen)
	})
}

func TestRequestID_OutsideChain(t *testing.T) {
	t.Parallel()
	assert.Empty(t, RequestID(httptest.NewRequest("GET", "/", nil).Context()))
}

func TestAccessLogMiddleware(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	h := newTestHandler(0, nil, greetRoute())
	chain := Chain(h, RequestIDMiddleware, AccessLogMiddleware(log))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, httptest.NewRequest("GET", "/greet", nil))
	require.Equal(t, 200, rec.Code)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "request", line["msg"])
	assert.Equal(t, "GET", line["method"])
	assert.Equal(t, "/greet", line["path"])
	assert.Equal(t, float64(200), line["status"])
	assert.Equal(t, "matched", line["outcome"])
	assert.Equal(t, rec.Header().Get(RequestIDHeader), line["request_id"])
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	sm := metrics.NewServerMetrics(nil)
	h := newTestHandler(100, stubInjector(0, 7), greetRoute())
	chain := Chain(h, RequestIDMiddleware, MetricsMiddleware(sm))

	for _, path := range []string{"/greet", "/missing", "/errors", "/healthz"} {
		chain.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", path, nil))
	}

	assert.Equal(t, float64(1), sm.Requests.Value("GET", metrics.OutcomeMatched, "200"))
	assert.Equal(t, float64(1), sm.Requests.Value("GET", metrics.OutcomeNotFound, "404"))
	assert.Equal(t, float64(1), sm.Requests.Value("GET", metrics.OutcomeInjected, "503"))
	assert.Equal(t, float64(1), sm.Requests.Value("GET", metrics.OutcomeFixed, "200"))
	assert.Equal(t, float64(1), sm.Injected.Value("503"))
}

func TestMetricsMiddleware_NilMetrics(t *testing.T) {
	t.Parallel()

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	h := MetricsMiddleware(nil)(next)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestHistoryMiddleware(t *testing.T) {
	t.Parallel()

	store := requestlog.NewMemoryStore(10)
	h := newTestHandler(0, nil, greetRoute())
	chain := Chain(h, RequestIDMiddleware, HistoryMiddleware(store))

	req := httptest.NewRequest("POST", "/greet?x=1", nil)
	req.Header.Set(RequestIDHeader, "rid-1")
	chain.ServeHTTP(httptest.NewRecorder(), req)

	entries := store.List(nil)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "POST", e.Method)
	assert.Equal(t, "/greet", e.Path)
	assert.Equal(t, "x=1", e.QueryString)
	assert.Equal(t, 405, e.ResponseStatus)
	assert.Equal(t, "method_mismatch", e.Outcome)
	assert.Equal(t, "rid-1", e.RequestID)
	assert.NotEmpty(t, e.ID)
}

func TestStatusRecorder_KeepsFirstFinalStatus(t *testing.T) {
	t.Parallel()

	rec := newStatusRecorder(httptest.NewRecorder())
	rec.WriteHeader(http.StatusAccepted)
	_, _ = rec.Write([]byte("abc"))
	assert.Equal(t, http.StatusAccepted, rec.statusCode)
	assert.Equal(t, int64(3), rec.bytes)

	implicit := newStatusRecorder(httptest.NewRecorder())
	_, _ = implicit.Write([]byte("x"))
	assert.Equal(t, http.StatusOK, implicit.statusCode)
}
