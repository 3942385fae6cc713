package testing

import (
	"net/url"
	"testing"
)

// RequestLog is one served request, as recorded by the server.
type RequestLog struct {
	Method      string
	Path        string
	QueryString string
	// RequestID is the X-Request-Id the response carried.
	RequestID string
	// Status is the response status code.
	Status int
	// Outcome is how the request was resolved, e.g. "matched" or "injected".
	Outcome string
	// BodySize is the request body size, -1 when unknown.
	BodySize int64
}

// AssertStatus asserts the response status code.
func (r *RequestLog) AssertStatus(t testing.TB, expected int) {
	t.Helper()

	if r.Status != expected {
		t.Errorf("%s %s: expected status %d, got %d", r.Method, r.Path, expected, r.Status)
	}
}

// AssertOutcome asserts how the request was resolved.
func (r *RequestLog) AssertOutcome(t testing.TB, expected string) {
	t.Helper()

	if r.Outcome != expected {
		t.Errorf("%s %s: expected outcome %q, got %q", r.Method, r.Path, expected, r.Outcome)
	}
}

// AssertQueryParam asserts that the request carried a query parameter
// with the expected value.
func (r *RequestLog) AssertQueryParam(t testing.TB, key, expected string) {
	t.Helper()

	values, err := url.ParseQuery(r.QueryString)
	if err != nil {
		t.Errorf("invalid query string %q: %v", r.QueryString, err)
		return
	}
	if !values.Has(key) {
		t.Errorf("request does not have query parameter %q", key)
		return
	}
	if actual := values.Get(key); actual != expected {
		t.Errorf("query parameter %q value mismatch\nexpected: %q\nactual: %q", key, expected, actual)
	}
}
