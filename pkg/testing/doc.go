// Package testing provides a testing SDK for using mockroute in Go tests.
//
// A MockServer runs the route server on an httptest listener. Routes added
// before Start become the initial table; routes added afterwards are pushed
// through PUT /routes, the same way a client under test would see them
// change.
//
// # Basic Usage
//
//	func TestMyAPI(t *testing.T) {
//	    mock := mrtesting.New(t)
//
//	    mock.Route("GET", "/users/123").
//	        WithJSON(map[string]string{"id": "123"}).
//	        Reply()
//
//	    url := mock.Start()
//
//	    resp, err := http.Get(url + "/users/123")
//	    ...
//	    mock.AssertCalled(t, "GET", "/users/123")
//	}
//
// # Error Injection
//
// Routes marked AsError answer with a random error status at the server's
// error percentage. Seed the injector to make the draws reproducible:
//
//	mock := mrtesting.New(t, mrtesting.WithErrorPercentage(50), mrtesting.WithSeed(7))
//	mock.Route("GET", "/flaky").AsError().Reply()
//
// # Assertions
//
// Every request served is recorded. Assert on calls by method and path,
// where path segments written as {name} match any value:
//
//	mock.AssertCalledTimes(t, "GET", "/users/{id}", 2)
//	mock.AssertNotCalled(t, "DELETE", "/users/123")
//
//	reqs := mock.Requests()
//	reqs[0].AssertStatus(t, 200)
//	reqs[0].AssertOutcome(t, "matched")
//
// The server is closed automatically when the test completes.
package testing
