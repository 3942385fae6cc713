package metrics

import (
	"strconv"
	"time"
)

// Request outcome label values.
const (
	OutcomeFixed          = "fixed"
	OutcomeNotFound       = "not_found"
	OutcomeMethodMismatch = "method_mismatch"
	OutcomeInjected       = "injected"
	OutcomeMatched        = "matched"
	OutcomeUnknownAction  = "unknown_action"
)

// Route update result label values.
const (
	UpdateApplied  = "applied"
	UpdateRejected = "rejected"
)

// ServerMetrics groups the metrics recorded by the route server.
type ServerMetrics struct {
	Registry *Registry

	// Requests counts every served request (labels: method, outcome, status).
	Requests *Counter
	// Duration tracks request latency in seconds (labels: method).
	Duration *Histogram
	// Injected counts error-injector draws that produced an error (labels: status).
	Injected *Counter
	// Routes is the current size of the route table.
	Routes *Gauge
	// Updates counts route table updates (labels: result).
	Updates *Counter
}

// NewServerMetrics registers the server metrics on r. A nil r gets a fresh registry.
func NewServerMetrics(r *Registry) *ServerMetrics {
	if r == nil {
		r = NewRegistry()
	}
	return &ServerMetrics{
		Registry: r,
		Requests: r.NewCounter("mockroute_requests_total",
			"Total number of requests served", "method", "outcome", "status"),
		Duration: r.NewHistogram("mockroute_request_duration_seconds",
			"Request handling latency in seconds", DefaultBuckets, "method"),
		Injected: r.NewCounter("mockroute_injected_errors_total",
			"Total number of injected error responses", "status"),
		Routes: r.NewGauge("mockroute_routes",
			"Number of routes in the route table"),
		Updates: r.NewCounter("mockroute_route_updates_total",
			"Total number of route table updates", "result"),
	}
}

// ObserveRequest records one served request. Safe on a nil receiver.
func (m *ServerMetrics) ObserveRequest(method, outcome string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	_ = m.Requests.Inc(method, outcome, strconv.Itoa(status))
	_ = m.Duration.Observe(elapsed.Seconds(), method)
}

// ObserveInjected records an injected error status. Safe on a nil receiver.
func (m *ServerMetrics) ObserveInjected(status int) {
	if m == nil {
		return
	}
	_ = m.Injected.Inc(strconv.Itoa(status))
}

// ObserveUpdate records a route update and the resulting table size.
// Safe on a nil receiver.
func (m *ServerMetrics) ObserveUpdate(applied bool, routes int) {
	if m == nil {
		return
	}
	result := UpdateRejected
	if applied {
		result = UpdateApplied
	}
	_ = m.Updates.Inc(result)
	_ = m.Routes.Set(float64(routes))
}

// SetRoutes sets the route table gauge. Safe on a nil receiver.
func (m *ServerMetrics) SetRoutes(n int) {
	if m == nil {
		return
	}
	_ = m.Routes.Set(float64(n))
}
