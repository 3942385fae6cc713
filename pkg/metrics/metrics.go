package metrics

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrLabelCountMismatch is returned when the number of label values doesn't match the defined labels.
var ErrLabelCountMismatch = errors.New("label count mismatch")

// ErrNegativeCounterValue is returned when attempting to add a negative value to a counter.
var ErrNegativeCounterValue = errors.New("counter cannot be decreased")

// ErrDuplicateMetric is returned when registering a metric with a name that is already registered.
var ErrDuplicateMetric = errors.New("duplicate metric name")

// atomicFloat64 stores float64 bits in a uint64 for lock-free updates.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 { return math.Float64frombits(a.bits.Load()) }

func (a *atomicFloat64) Store(v float64) { a.bits.Store(math.Float64bits(v)) }

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// MetricType represents the type of a metric.
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// Metric is the interface implemented by all metric types.
type Metric interface {
	Name() string
	Help() string
	Type() MetricType
	Collect() []Sample
}

// Sample represents a single metric sample with labels.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// family holds one series per distinct label-value combination.
type family[S any] struct {
	name       string
	help       string
	labelNames []string
	newSeries  func(labels map[string]string) *S

	mu     sync.RWMutex
	series map[string]*S
	order  []string
}

func newFamily[S any](name, help string, labelNames []string, newSeries func(map[string]string) *S) family[S] {
	return family[S]{
		name:       name,
		help:       help,
		labelNames: labelNames,
		newSeries:  newSeries,
		series:     make(map[string]*S),
	}
}

func (f *family[S]) Name() string { return f.name }
func (f *family[S]) Help() string { return f.help }

func (f *family[S]) with(values []string) (*S, error) {
	if len(values) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: %s expected %d labels, got %d",
			ErrLabelCountMismatch, f.name, len(f.labelNames), len(values))
	}

	key := strings.Join(values, "\x00")
	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok = f.series[key]; ok {
		return s, nil
	}
	labels := make(map[string]string, len(values))
	for i, name := range f.labelNames {
		labels[name] = values[i]
	}
	s = f.newSeries(labels)
	f.series[key] = s
	f.order = append(f.order, key)
	return s, nil
}

// each visits series in creation order.
func (f *family[S]) each(fn func(*S)) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, key := range f.order {
		fn(f.series[key])
	}
}

type scalarSeries struct {
	labels map[string]string
	value  atomicFloat64
}

func newScalarSeries(labels map[string]string) *scalarSeries {
	return &scalarSeries{labels: labels}
}

// ============================================================================
// Counter
// ============================================================================

// Counter is a monotonically increasing metric.
type Counter struct {
	family[scalarSeries]
}

// Type returns MetricTypeCounter.
func (c *Counter) Type() MetricType { return MetricTypeCounter }

// Inc adds one to the series selected by values.
func (c *Counter) Inc(values ...string) error {
	return c.Add(1, values...)
}

// Add adds delta to the series selected by values. Negative deltas are rejected.
func (c *Counter) Add(delta float64, values ...string) error {
	if delta < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeCounterValue, c.name)
	}
	s, err := c.with(values)
	if err != nil {
		return err
	}
	s.value.Add(delta)
	return nil
}

// Value returns the current value of the series selected by values.
func (c *Counter) Value(values ...string) float64 {
	s, err := c.with(values)
	if err != nil {
		return 0
	}
	return s.value.Load()
}

// Collect returns all metric samples.
func (c *Counter) Collect() []Sample {
	var samples []Sample
	c.each(func(s *scalarSeries) {
		samples = append(samples, Sample{Name: c.name, Labels: s.labels, Value: s.value.Load()})
	})
	return samples
}

// ============================================================================
// Gauge
// ============================================================================

// Gauge is a metric that can arbitrarily go up and down.
type Gauge struct {
	family[scalarSeries]
}

// Type returns MetricTypeGauge.
func (g *Gauge) Type() MetricType { return MetricTypeGauge }

// Set sets the series selected by values.
func (g *Gauge) Set(v float64, values ...string) error {
	s, err := g.with(values)
	if err != nil {
		return err
	}
	s.value.Store(v)
	return nil
}

// Add adds delta, which may be negative, to the series selected by values.
func (g *Gauge) Add(delta float64, values ...string) error {
	s, err := g.with(values)
	if err != nil {
		return err
	}
	s.value.Add(delta)
	return nil
}

// Value returns the current value of the series selected by values.
func (g *Gauge) Value(values ...string) float64 {
	s, err := g.with(values)
	if err != nil {
		return 0
	}
	return s.value.Load()
}

// Collect returns all metric samples.
func (g *Gauge) Collect() []Sample {
	var samples []Sample
	g.each(func(s *scalarSeries) {
		samples = append(samples, Sample{Name: g.name, Labels: s.labels, Value: s.value.Load()})
	})
	return samples
}

// ============================================================================
// Histogram
// ============================================================================

type histogramSeries struct {
	labels map[string]string
	bounds []float64
	counts []atomic.Uint64
	sum    atomicFloat64
	count  atomic.Uint64
}

// Histogram tracks the distribution of observed values.
type Histogram struct {
	family[histogramSeries]
	bounds []float64
}

// Type returns MetricTypeHistogram.
func (h *Histogram) Type() MetricType { return MetricTypeHistogram }

// Observe records v in the series selected by values.
func (h *Histogram) Observe(v float64, values ...string) error {
	s, err := h.with(values)
	if err != nil {
		return err
	}
	for i, bound := range s.bounds {
		if v <= bound {
			s.counts[i].Add(1)
			break
		}
	}
	s.sum.Add(v)
	s.count.Add(1)
	return nil
}

// Collect returns cumulative bucket samples followed by _sum and _count.
func (h *Histogram) Collect() []Sample {
	var samples []Sample
	h.each(func(s *histogramSeries) {
		var cumulative uint64
		for i, bound := range s.bounds {
			cumulative += s.counts[i].Load()
			labels := make(map[string]string, len(s.labels)+1)
			for k, v := range s.labels {
				labels[k] = v
			}
			labels["le"] = formatFloat(bound)
			samples = append(samples, Sample{Name: h.name + "_bucket", Labels: labels, Value: float64(cumulative)})
		}
		samples = append(samples,
			Sample{Name: h.name + "_sum", Labels: s.labels, Value: s.sum.Load()},
			Sample{Name: h.name + "_count", Labels: s.labels, Value: float64(s.count.Load())},
		)
	})
	return samples
}

// ============================================================================
// Registry
// ============================================================================

// Registry holds all registered metrics.
type Registry struct {
	mu      sync.RWMutex
	metrics []Metric
	names   map[string]struct{}
}

// NewRegistry creates a new metric registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter creates and registers a new counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	c := &Counter{family: newFamily(name, help, labels, newScalarSeries)}
	r.register(c)
	return c
}

// NewGauge creates and registers a new gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	g := &Gauge{family: newFamily(name, help, labels, newScalarSeries)}
	r.register(g)
	return g
}

// NewHistogram creates and registers a new histogram. A +Inf bucket is
// appended when missing.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	bounds := append([]float64(nil), buckets...)
	sort.Float64s(bounds)
	if len(bounds) == 0 || !math.IsInf(bounds[len(bounds)-1], 1) {
		bounds = append(bounds, math.Inf(1))
	}

	h := &Histogram{bounds: bounds}
	h.family = newFamily(name, help, labels, func(l map[string]string) *histogramSeries {
		return &histogramSeries{labels: l, bounds: bounds, counts: make([]atomic.Uint64, len(bounds))}
	})
	r.register(h)
	return h
}

// register panics on duplicate names; duplicate families are invalid exposition.
func (r *Registry) register(m Metric) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[m.Name()]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, m.Name()))
	}
	r.names[m.Name()] = struct{}{}
	r.metrics = append(r.metrics, m)
}

// Handler serves the registry in Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		r.WriteTo(w)
	})
}

// WriteTo writes every metric with at least one sample.
func (r *Registry) WriteTo(w io.Writer) {
	r.mu.RLock()
	metrics := append([]Metric(nil), r.metrics...)
	r.mu.RUnlock()

	for _, m := range metrics {
		samples := m.Collect()
		if len(samples) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "# HELP %s %s\n", m.Name(), escape(m.Help(), false))
		_, _ = fmt.Fprintf(w, "# TYPE %s %s\n", m.Name(), m.Type())
		for _, s := range samples {
			if len(s.Labels) == 0 {
				_, _ = fmt.Fprintf(w, "%s %s\n", s.Name, formatFloat(s.Value))
				continue
			}
			_, _ = fmt.Fprintf(w, "%s{%s} %s\n", s.Name, formatLabels(s.Labels), formatFloat(s.Value))
		}
	}
}

func formatLabels(labels map[string]string) string {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + `="` + escape(labels[k], true) + `"`
	}
	return strings.Join(parts, ",")
}

func formatFloat(v float64) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func escape(s string, quote bool) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	if quote {
		s = strings.ReplaceAll(s, `"`, `\"`)
	}
	return s
}

// DefaultBuckets are the default histogram buckets for request durations (in seconds).
var DefaultBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}
