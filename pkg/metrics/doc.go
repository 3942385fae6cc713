// Package metrics provides Prometheus-compatible metrics for mockroute.
//
// The registry writes the Prometheus text exposition format
// (text/plain; version=0.0.4). Counters, gauges and histograms are keyed by
// label values and are safe for concurrent use.
//
// # Server Metrics
//
// NewServerMetrics registers the set recorded by the route server:
//
//   - mockroute_requests_total: requests served (labels: method, outcome, status)
//   - mockroute_request_duration_seconds: handling latency (labels: method)
//   - mockroute_injected_errors_total: injected error responses (labels: status)
//   - mockroute_routes: current route table size
//   - mockroute_route_updates_total: route table updates (labels: result)
//
// Outcome values are fixed, not_found, method_mismatch, injected, matched
// and unknown_action.
package metrics
