package engine

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/requestlog"
)

// RequestIDHeader carries the request ID on requests and responses.
const RequestIDHeader = "X-Request-Id"

// Middleware wraps an http.Handler.
type Middleware func(http.Handler) http.Handler

// Chain applies middleware so that the first one listed is outermost.
func Chain(h http.Handler, mws ...Middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// requestInfo is shared by the middleware and the handlers of one request.
type requestInfo struct {
	id      string
	outcome Outcome
}

type requestInfoKey struct{}

func infoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}

// setOutcome records how the request was resolved. No-op outside the middleware chain.
func setOutcome(r *http.Request, o Outcome) {
	if info := infoFrom(r.Context()); info != nil {
		info.outcome = o
	}
}

// RequestID returns the request ID assigned by RequestIDMiddleware, if any.
func RequestID(ctx context.Context) string {
	if info := infoFrom(ctx); info != nil {
		return info.id
	}
	return ""
}

// RequestIDMiddleware propagates X-Request-Id, generating one when the
// client sent none. It must be the outermost middleware.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)

		info := &requestInfo{id: id, outcome: OutcomeFixed}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)))
	})
}

// statusRecorder wraps http.ResponseWriter to capture the status code and body size.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	bytes      int64
	written    bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
}

// WriteHeader captures the first final status code.
func (w *statusRecorder) WriteHeader(code int) {
	if !w.written {
		w.statusCode = code
		// Informational codes other than 101 may be followed by a final one.
		w.written = code >= 200 || code == http.StatusSwitchingProtocols
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.written = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// AccessLogMiddleware logs one line per request.
func AccessLogMiddleware(log *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.statusCode,
				"bytes", rec.bytes,
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
			}
			if info := infoFrom(r.Context()); info != nil {
				attrs = append(attrs, "outcome", string(info.outcome), "request_id", info.id)
			}

			switch {
			case rec.statusCode >= 500:
				log.Warn("request", attrs...)
			default:
				log.Info("request", attrs...)
			}
		})
	}
}

// MetricsMiddleware records request counts, latency and injected errors.
func MetricsMiddleware(m *metrics.ServerMetrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			outcome := OutcomeFixed
			if info := infoFrom(r.Context()); info != nil {
				outcome = info.outcome
			}
			m.ObserveRequest(r.Method, string(outcome), rec.statusCode, time.Since(start))
			if outcome == OutcomeInjected {
				m.ObserveInjected(rec.statusCode)
			}
		})
	}
}

// HistoryMiddleware records every request in store.
func HistoryMiddleware(store requestlog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			entry := &requestlog.Entry{
				Timestamp:      start,
				Method:         r.Method,
				Path:           r.URL.Path,
				QueryString:    r.URL.RawQuery,
				BodySize:       r.ContentLength,
				RemoteAddr:     r.RemoteAddr,
				Outcome:        string(OutcomeFixed),
				ResponseStatus: rec.statusCode,
				DurationMs:     time.Since(start).Milliseconds(),
			}
			if info := infoFrom(r.Context()); info != nil {
				entry.RequestID = info.id
				entry.Outcome = string(info.outcome)
			}
			store.Log(entry)
		})
	}
}
