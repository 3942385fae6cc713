package testing

import (
	"encoding/json"
	"fmt"

	"github.com/getmockd/mockroute/pkg/route"
)

// RouteBuilder builds a route using a fluent API.
type RouteBuilder struct {
	server *MockServer
	route  route.Route
	err    error // first error encountered during building
}

// setError records the first error encountered during building.
func (b *RouteBuilder) setError(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Err returns any error encountered during building.
func (b *RouteBuilder) Err() error {
	return b.err
}

// WithStatus sets the response status code. Default is 200.
func (b *RouteBuilder) WithStatus(status int) *RouteBuilder {
	b.route.Code = status
	return b
}

// WithBody sets the response body. Strings and byte slices are used as is;
// anything else is JSON encoded.
func (b *RouteBuilder) WithBody(body any) *RouteBuilder {
	switch v := body.(type) {
	case string:
		b.route.Response = v
	case []byte:
		b.route.Response = string(v)
	default:
		return b.WithJSON(v)
	}
	return b
}

// WithJSON sets the response body to the JSON encoding of body.
func (b *RouteBuilder) WithJSON(body any) *RouteBuilder {
	data, err := json.Marshal(body)
	if err != nil {
		b.setError(fmt.Errorf("WithJSON: failed to marshal body: %w", err))
		return b
	}
	b.route.Response = string(data)
	return b
}

// AsError marks the route for error injection. The response and status are
// ignored while the flag is set.
func (b *RouteBuilder) AsError() *RouteBuilder {
	b.route.Error = true
	return b
}

// Reply validates the route and registers it with the server. Build or
// validation errors fail the test.
func (b *RouteBuilder) Reply() {
	t := b.server.t
	t.Helper()

	if b.err != nil {
		t.Fatalf("route %s: %v", b.route, b.err)
		return
	}
	if err := b.route.Validate(); err != nil {
		t.Fatalf("route %s: %v", b.route, err)
		return
	}
	if err := b.server.addRoute(b.route); err != nil {
		t.Fatalf("route %s: %v", b.route, err)
	}
}
