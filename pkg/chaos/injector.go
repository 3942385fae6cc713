package chaos

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
)

// ErrorCodes is the fixed set of statuses an injected error is drawn from.
var ErrorCodes = [...]int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusRequestTimeout,
	http.StatusConflict,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
}

// Source draws uniform integers in [0, n). Implementations must be safe for
// concurrent use.
type Source interface {
	IntN(n int) int
}

// globalSource uses the process-wide math/rand/v2 generator, which is
// already safe for concurrent use.
type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource serializes access to a seeded generator.
type lockedSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededSource returns a deterministic Source for tests and reproducible runs.
func NewSeededSource(seed uint64) Source {
	return &lockedSource{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}

// Injector picks response statuses for error-flagged requests.
type Injector struct {
	source Source

	draws    atomic.Int64
	injected atomic.Int64
	byStatus [len(ErrorCodes)]atomic.Int64
}

// Option configures an Injector.
type Option func(*Injector)

// WithSource sets the random source. A nil source is ignored.
func WithSource(src Source) Option {
	return func(i *Injector) {
		if src != nil {
			i.source = src
		}
	}
}

// NewInjector creates an Injector backed by the global random source unless
// WithSource says otherwise.
func NewInjector(opts ...Option) *Injector {
	i := &Injector{source: globalSource{}}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// PickStatus returns an error status with probability percentage/100 and
// 200 otherwise. Percentages at or below 0 never inject; 100 and above
// always do.
func (i *Injector) PickStatus(percentage int) int {
	i.draws.Add(1)

	if i.source.IntN(100) >= percentage {
		return http.StatusOK
	}

	idx := i.source.IntN(len(ErrorCodes))
	i.injected.Add(1)
	i.byStatus[idx].Add(1)
	return ErrorCodes[idx]
}

// Stats is a snapshot of injection counters.
type Stats struct {
	Draws    int64         `json:"draws"`
	Injected int64         `json:"injected"`
	ByStatus map[int]int64 `json:"byStatus"`
}

// Stats returns the counters accumulated since creation or the last reset.
func (i *Injector) Stats() Stats {
	s := Stats{
		Draws:    i.draws.Load(),
		Injected: i.injected.Load(),
		ByStatus: make(map[int]int64),
	}
	for idx, code := range ErrorCodes {
		if n := i.byStatus[idx].Load(); n > 0 {
			s.ByStatus[code] = n
		}
	}
	return s
}

// ResetStats zeroes every counter.
func (i *Injector) ResetStats() {
	i.draws.Store(0)
	i.injected.Store(0)
	for idx := range i.byStatus {
		i.byStatus[idx].Store(0)
	}
}

// IsErrorCode reports whether code belongs to ErrorCodes.
func IsErrorCode(code int) bool {
	for _, c := range ErrorCodes {
		if c == code {
			return true
		}
	}
	return false
}
