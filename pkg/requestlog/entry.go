package requestlog

import "time"

// Entry captures one request served by the route server.
type Entry struct {
	// ID is a unique identifier for the log entry.
	ID string `json:"id"`

	// RequestID is the X-Request-Id the request was served with.
	RequestID string `json:"requestId,omitempty"`

	// Timestamp is when the request was received.
	Timestamp time.Time `json:"timestamp"`

	Method      string `json:"method"`
	Path        string `json:"path"`
	QueryString string `json:"queryString,omitempty"`

	// BodySize is the request body size in bytes, -1 when unknown.
	BodySize int64 `json:"bodySize"`

	RemoteAddr string `json:"remoteAddr"`

	// Outcome is how the request was resolved (fixed, matched, injected,
	// not_found, method_mismatch, unknown_action).
	Outcome string `json:"outcome"`

	// ResponseStatus is the status code returned.
	ResponseStatus int `json:"responseStatus"`

	// DurationMs is the request processing time in milliseconds.
	DurationMs int64 `json:"durationMs"`
}
