package metrics

import (
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounter(t *testing.T) {
	t.Run("without labels", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("test_counter", "A test counter")

		_ = c.Inc()
		_ = c.Inc()
		_ = c.Add(3)

		samples := c.Collect()
		if len(samples) != 1 {
			t.Fatalf("expected 1 sample, got %d", len(samples))
		}
		if samples[0].Value != 5 {
			t.Errorf("expected value 5, got %f", samples[0].Value)
		}
	})

	t.Run("with labels", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("http_requests", "Total HTTP requests", "method", "status")

		_ = c.Inc("GET", "200")
		_ = c.Inc("GET", "200")
		_ = c.Add(5, "POST", "201")

		if got := c.Value("GET", "200"); got != 2 {
			t.Errorf("GET_200 = %f, want 2", got)
		}
		if got := c.Value("POST", "201"); got != 5 {
			t.Errorf("POST_201 = %f, want 5", got)
		}
		if n := len(c.Collect()); n != 2 {
			t.Errorf("expected 2 samples, got %d", n)
		}
	})

	t.Run("label count mismatch", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("test", "test", "a", "b")

		err := c.Inc("only-one")
		if !errors.Is(err, ErrLabelCountMismatch) {
			t.Errorf("expected ErrLabelCountMismatch, got %v", err)
		}
	})

	t.Run("negative add rejected", func(t *testing.T) {
		r := NewRegistry()
		c := r.NewCounter("test", "test")

		_ = c.Add(2)
		if err := c.Add(-1); !errors.Is(err, ErrNegativeCounterValue) {
			t.Errorf("expected ErrNegativeCounterValue, got %v", err)
		}
		if c.Value() != 2 {
			t.Errorf("value changed after rejected add: %f", c.Value())
		}
	})
}

func TestGauge(t *testing.T) {
	r := NewRegistry()
	g := r.NewGauge("test_gauge", "A test gauge")

	_ = g.Set(10)
	_ = g.Add(-3)
	if got := g.Value(); got != 7 {
		t.Errorf("Value() = %f, want 7", got)
	}

	_ = g.Set(0)
	if got := g.Value(); got != 0 {
		t.Errorf("Value() after Set(0) = %f, want 0", got)
	}
}

func TestHistogram(t *testing.T) {
	r := NewRegistry()
	h := r.NewHistogram("latency", "Latency", []float64{0.1, 0.5, 1}, "method")

	for _, v := range []float64{0.05, 0.2, 0.3, 0.7, 2} {
		_ = h.Observe(v, "GET")
	}

	buckets := make(map[string]float64)
	var sum, count float64
	for _, s := range h.Collect() {
		switch s.Name {
		case "latency_bucket":
			buckets[s.Labels["le"]] = s.Value
		case "latency_sum":
			sum = s.Value
		case "latency_count":
			count = s.Value
		}
	}

	want := map[string]float64{"0.1": 1, "0.5": 3, "1": 4, "+Inf": 5}
	for le, n := range want {
		if buckets[le] != n {
			t.Errorf("bucket le=%s = %f, want %f", le, buckets[le], n)
		}
	}
	if count != 5 {
		t.Errorf("count = %f, want 5", count)
	}
	if math.Abs(sum-3.25) > 1e-9 {
		t.Errorf("sum = %f, want 3.25", sum)
	}
}

func TestRegistry_DuplicateNamePanics(t *testing.T) {
	r := NewRegistry()
	r.NewCounter("dup", "first")

	defer func() {
		if recover() == nil {
			t.Error("expected panic on duplicate metric name")
		}
	}()
	r.NewGauge("dup", "second")
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("requests_total", "Total requests", "path")
	r.NewGauge("unused", "Never set")
	_ = c.Inc(`/a"b`)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain; version=0.0.4") {
		t.Errorf("Content-Type = %q", ct)
	}

	body, _ := io.ReadAll(rec.Body)
	out := string(body)
	for _, want := range []string{
		"# HELP requests_total Total requests\n",
		"# TYPE requests_total counter\n",
		`requests_total{path="/a\"b"} 1` + "\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "unused") {
		t.Errorf("metric without samples should be omitted:\n%s", out)
	}
}

func TestConcurrency(t *testing.T) {
	r := NewRegistry()
	c := r.NewCounter("concurrent", "test", "worker")
	h := r.NewHistogram("concurrent_latency", "test", DefaultBuckets)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = c.Inc("w")
				_ = h.Observe(0.01)
			}
		}()
	}
	wg.Wait()

	if got := c.Value("w"); got != 5000 {
		t.Errorf("counter = %f, want 5000", got)
	}
}

func TestServerMetrics(t *testing.T) {
	m := NewServerMetrics(nil)

	m.ObserveRequest("GET", OutcomeMatched, 201, 3*time.Millisecond)
	m.ObserveRequest("GET", OutcomeMatched, 201, time.Millisecond)
	m.ObserveInjected(503)
	m.ObserveUpdate(true, 4)
	m.ObserveUpdate(false, 4)

	if got := m.Requests.Value("GET", OutcomeMatched, "201"); got != 2 {
		t.Errorf("requests = %f, want 2", got)
	}
	if got := m.Injected.Value("503"); got != 1 {
		t.Errorf("injected = %f, want 1", got)
	}
	if got := m.Updates.Value(UpdateRejected); got != 1 {
		t.Errorf("rejected updates = %f, want 1", got)
	}
	if got := m.Routes.Value(); got != 4 {
		t.Errorf("routes = %f, want 4", got)
	}

	var sb strings.Builder
	m.Registry.WriteTo(&sb)
	if !strings.Contains(sb.String(), `mockroute_request_duration_seconds_count{method="GET"} 2`) {
		t.Errorf("duration count missing:\n%s", sb.String())
	}
}

func TestServerMetrics_NilSafe(t *testing.T) {
	var m *ServerMetrics
	m.ObserveRequest("GET", OutcomeFixed, 200, 0)
	m.ObserveInjected(500)
	m.ObserveUpdate(true, 1)
	m.SetRoutes(1)
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{1.5, "1.5"},
		{math.Inf(1), "+Inf"},
		{math.Inf(-1), "-Inf"},
		{math.NaN(), "NaN"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.in); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
