package engine

import (
	"log/slog"

	"github.com/getmockd/mockroute/internal/storage"
	"github.com/getmockd/mockroute/pkg/logging"
	"github.com/getmockd/mockroute/pkg/metrics"
	"github.com/getmockd/mockroute/pkg/route"
)

// Mutator applies route updates to a route table.
type Mutator struct {
	store   storage.RouteStore
	log     *slog.Logger
	metrics *metrics.ServerMetrics
}

// MutatorOption configures a Mutator.
type MutatorOption func(*Mutator)

// WithMutatorLogger sets the logger for applied and rejected updates.
func WithMutatorLogger(log *slog.Logger) MutatorOption {
	return func(m *Mutator) {
		if log != nil {
			m.log = log
		}
	}
}

// WithMutatorMetrics records updates on m.
func WithMutatorMetrics(sm *metrics.ServerMetrics) MutatorOption {
	return func(m *Mutator) {
		m.metrics = sm
	}
}

// NewMutator creates a Mutator writing to store.
func NewMutator(store storage.RouteStore, opts ...MutatorOption) *Mutator {
	m := &Mutator{store: store, log: logging.Nop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyUpdate parses raw as an array of route objects and upserts every
// route. On any parse or validation failure nothing is stored and the
// *route.ParseError is returned.
func (m *Mutator) ApplyUpdate(raw []byte, format route.Format) (int, error) {
	routes, err := route.Parse(raw, format)
	if err != nil {
		m.log.Warn("route update rejected", "format", string(format), "error", err)
		m.metrics.ObserveUpdate(false, m.store.Count())
		return 0, err
	}
	return m.upsert(routes), nil
}

// Apply validates already-decoded routes and upserts them. Either every
// route is valid and stored, or none is.
func (m *Mutator) Apply(routes []route.Route) (int, error) {
	for i, r := range routes {
		if err := r.Validate(); err != nil {
			m.metrics.ObserveUpdate(false, m.store.Count())
			return 0, &route.ParseError{Index: i, Err: err}
		}
	}
	return m.upsert(routes), nil
}

func (m *Mutator) upsert(routes []route.Route) int {
	m.store.UpsertBatch(routes)
	for _, r := range routes {
		m.log.Debug("route stored", "method", r.Method, "path", r.Path, "code", r.Code, "error", r.Error)
	}
	m.log.Info("routes updated", "count", len(routes), "total", m.store.Count())
	m.metrics.ObserveUpdate(true, m.store.Count())
	return len(routes)
}
