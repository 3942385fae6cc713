package engine

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/getmockd/mockroute/pkg/chaos"
	"github.com/getmockd/mockroute/pkg/route"
)

// ============================================================================
// Dispatch
// ============================================================================

func TestDispatch_RegisteredRoutes(t *testing.T) {
	t.Parallel()

	routes := []route.Route{
		greetRoute(),
		{Method: "POST", Path: "/orders", Response: "created", Code: 201},
		{Method: "PUT", Path: "/orders/1", Response: "replaced", Code: 200},
		{Method: "PATCH", Path: "/orders/2", Response: "patched", Code: 202},
		{Method: "DELETE", Path: "/orders/3", Response: "ignored", Code: 204},
	}
	d := NewDispatcher(newTestStore(routes...), stubInjector(0), 100)

	for _, r := range routes {
		t.Run(r.String(), func(t *testing.T) {
			t.Parallel()
			got := d.Dispatch(r.Method, r.Path)
			assert.Equal(t, r.Code, got.Status)
			assert.Equal(t, OutcomeMatched, got.Outcome)
			if r.Method == http.MethodDelete {
				assert.Empty(t, got.Body)
				return
			}
			assert.Equal(t, r.Response, got.Body)
		})
	}
}

func TestDispatch_NotFound(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newTestStore(greetRoute()), nil, 0)

	for _, path := range []string{"/missing", "/greet/", "/Greet", "greet", "/"} {
		got := d.Dispatch("GET", path)
		assert.Equal(t, Response{Status: http.StatusNotFound, Outcome: OutcomeNotFound}, got, path)
	}
}

func TestDispatch_MethodMismatch(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newTestStore(greetRoute()), nil, 0)

	for _, method := range []string{"POST", "PUT", "PATCH", "DELETE", "HEAD", "get"} {
		got := d.Dispatch(method, "/greet")
		assert.Equal(t, http.StatusMethodNotAllowed, got.Status, method)
		assert.Empty(t, got.Body)
		assert.Equal(t, OutcomeMethodMismatch, got.Outcome)
	}
}

func TestDispatch_ErrorRouteAlwaysInjectsAtHundred(t *testing.T) {
	t.Parallel()

	flaky := route.Route{Method: "GET", Path: "/flaky", Response: "OK", Code: 200, Error: true}
	d := NewDispatcher(newTestStore(flaky), chaos.NewInjector(chaos.WithSource(chaos.NewSeededSource(11))), 100)

	for i := 0; i < 500; i++ {
		got := d.Dispatch("GET", "/flaky")
		assert.True(t, chaos.IsErrorCode(got.Status), "status %d", got.Status)
		assert.Empty(t, got.Body)
		assert.Equal(t, OutcomeInjected, got.Outcome)
	}
}

func TestDispatch_ErrorRouteCanPass(t *testing.T) {
	t.Parallel()

	flaky := route.Route{Method: "GET", Path: "/flaky", Response: "ignored", Code: 201, Error: true}
	d := NewDispatcher(newTestStore(flaky), stubInjector(99), 50)

	got := d.Dispatch("GET", "/flaky")
	assert.Equal(t, Response{Status: http.StatusOK, Outcome: OutcomeMatched}, got,
		"a passing draw answers 200 with an empty body, not the route's code")
}

func TestDispatch_ErrorRouteStillChecksMethod(t *testing.T) {
	t.Parallel()

	flaky := route.Route{Method: "GET", Path: "/flaky", Code: 200, Error: true}
	d := NewDispatcher(newTestStore(flaky), stubInjector(0), 100)

	assert.Equal(t, http.StatusMethodNotAllowed, d.Dispatch("POST", "/flaky").Status)
}

func TestDispatch_InvalidStoredCodeFallsBackTo200(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newTestStore(route.Route{Method: "GET", Path: "/odd", Response: "x", Code: 999}), nil, 0)

	got := d.Dispatch("GET", "/odd")
	assert.Equal(t, http.StatusOK, got.Status)
	assert.Equal(t, "x", got.Body)
}

func TestDispatch_UnknownStoredMethod(t *testing.T) {
	t.Parallel()

	d := NewDispatcher(newTestStore(route.Route{Method: "OPTIONS", Path: "/opt", Code: 200}), nil, 0)

	got := d.Dispatch("OPTIONS", "/opt")
	assert.Equal(t, Response{Status: http.StatusNotFound, Outcome: OutcomeUnknownAction}, got)
}

func TestDispatch_SeesReplacement(t *testing.T) {
	t.Parallel()

	store := newTestStore(route.Route{Method: "GET", Path: "/x", Response: "first", Code: 200})
	d := NewDispatcher(store, nil, 0)

	store.Upsert(route.Route{Method: "GET", Path: "/x", Code: 500})
	got := d.Dispatch("GET", "/x")
	assert.Equal(t, 500, got.Status)
	assert.Empty(t, got.Body, "no field merge with the replaced route")
}

func TestInjectGlobal(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusOK, NewDispatcher(newTestStore(), nil, 0).InjectGlobal())
	assert.Equal(t, http.StatusBadGateway, NewDispatcher(newTestStore(), stubInjector(0, 6), 10).InjectGlobal())

	d := NewDispatcher(newTestStore(), nil, 37)
	assert.Equal(t, 37, d.ErrorPercentage())
}
