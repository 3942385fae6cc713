package client

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/mockroute/pkg/admin"
	"github.com/getmockd/mockroute/pkg/config"
	"github.com/getmockd/mockroute/pkg/engine"
	"github.com/getmockd/mockroute/pkg/route"
)

// newTestPair serves one engine on two httptest servers: the mock listener
// and its admin API.
func newTestPair(t *testing.T, routes ...route.Route) (mock, adm *Client) {
	t.Helper()
	cfg := config.DefaultConfig()
	for _, r := range routes {
		cfg.Routes[r.Path] = r
	}
	eng := engine.NewServer(cfg)

	mockSrv := httptest.NewServer(eng.Handler())
	t.Cleanup(mockSrv.Close)
	adminSrv := httptest.NewServer(admin.NewAPI(0, eng, admin.WithVersion("test")).Handler())
	t.Cleanup(adminSrv.Close)

	return New(mockSrv.URL, WithTimeout(5*time.Second)), New(adminSrv.URL + "/")
}

func TestClient_HealthAndStats(t *testing.T) {
	t.Parallel()
	_, adm := newTestPair(t, route.Route{Method: "GET", Path: "/a", Response: "a", Code: 200})
	ctx := context.Background()

	health, err := adm.Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)

	stats, err := adm.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Routes)

	require.NoError(t, adm.ResetStats(ctx))
}

func TestClient_PushAndListRoutes(t *testing.T) {
	t.Parallel()
	mock, adm := newTestPair(t)
	ctx := context.Background()

	payload := []byte("- path: /hello\n  response: world\n- path: /gone\n  method: DELETE\n  code: 204\n")
	require.NoError(t, mock.PushRoutes(ctx, payload, ""))

	routes, err := adm.ListRoutes(ctx)
	require.NoError(t, err)
	require.Len(t, routes, 2)
	assert.Equal(t, "/gone", routes[0].Path)
	assert.Equal(t, "/hello", routes[1].Path)

	r, err := adm.GetRoute(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "world", r.Response)

	require.NoError(t, adm.DeleteRoute(ctx, "/gone"))
	_, err = adm.GetRoute(ctx, "/gone")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, adm.DeleteRoute(ctx, "/gone"), ErrNotFound)
}

func TestClient_PushRoutesRejected(t *testing.T) {
	t.Parallel()
	mock, adm := newTestPair(t)
	ctx := context.Background()

	err := mock.PushRoutes(ctx, []byte(`[{"path":"/x","code":"abc"}]`), "application/json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")

	routes, err := adm.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Empty(t, routes)
}

func TestClient_Requests(t *testing.T) {
	t.Parallel()
	mock, adm := newTestPair(t)
	ctx := context.Background()

	require.NoError(t, mock.PushRoutes(ctx, []byte("- path: /x\n"), ""))

	entries, err := adm.ListRequests(ctx, &RequestFilter{Method: "PUT"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "/routes", entries[0].Path)

	got, err := adm.GetRequest(ctx, entries[0].ID)
	require.NoError(t, err)
	assert.Equal(t, entries[0].ID, got.ID)

	_, err = adm.GetRequest(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := adm.ClearRequests(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRequestFilter_Query(t *testing.T) {
	t.Parallel()

	var nilFilter *RequestFilter
	assert.Empty(t, nilFilter.query())
	assert.Empty(t, (&RequestFilter{}).query())
	assert.Equal(t, "?limit=5&method=GET&status=404",
		(&RequestFilter{Method: "GET", StatusCode: 404, Limit: 5}).query())
}
