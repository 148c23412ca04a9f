package metrics

import (
	"math"
	"sync"
	"sync/atomic"
)

// registry creates instruments of one kind on demand and reuses them by name.
type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	meta  map[string]InstrumentConfig
	newFn func() T
}

func newRegistry[T any](newFn func() T) *registry[T] {
	return &registry[T]{items: make(map[string]T), meta: make(map[string]InstrumentConfig), newFn: newFn}
}

func (r *registry[T]) get(name string, opts []InstrumentOption) T {
	r.mu.RLock()
	v, ok := r.items[name]
	r.mu.RUnlock()
	if ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok = r.items[name]; ok {
		return v
	}
	v = r.newFn()
	r.items[name] = v
	r.meta[name] = applyOptions(opts)
	return v
}

func (r *registry[T]) config(name string) (InstrumentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.meta[name]
	return c, ok
}

// BasicProvider is an in-memory Provider, suitable for tests and for exposing
// pool statistics without an external metrics system.
type BasicProvider struct {
	counters   *registry[*BasicCounter]
	updowns    *registry[*BasicUpDownCounter]
	histograms *registry[*BasicHistogram]
}

func NewBasicProvider() *BasicProvider {
	return &BasicProvider{
		counters: newRegistry(func() *BasicCounter { return &BasicCounter{} }),
		updowns:  newRegistry(func() *BasicUpDownCounter { return &BasicUpDownCounter{} }),
		histograms: newRegistry(func() *BasicHistogram {
			return &BasicHistogram{min: math.Inf(1), max: math.Inf(-1)}
		}),
	}
}

func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.counters.get(name, opts)
}

func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.updowns.get(name, opts)
}

func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return p.histograms.get(name, opts)
}

// Describe returns the metadata an instrument was created with.
func (p *BasicProvider) Describe(name string) (InstrumentConfig, bool) {
	if c, ok := p.counters.config(name); ok {
		return c, true
	}
	if c, ok := p.updowns.config(name); ok {
		return c, true
	}
	return p.histograms.config(name)
}

// BasicCounter is a monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

func (c *BasicCounter) Add(n int64)      { c.val.Add(n) }
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a counter that may decrease.
type BasicUpDownCounter struct {
	val atomic.Int64
}

func (u *BasicUpDownCounter) Add(n int64)      { u.val.Add(n) }
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	h.count++
	h.sum += v
	h.min = math.Min(h.min, v)
	h.max = math.Max(h.max, v)
	h.mu.Unlock()
}

// HistSnapshot is an immutable copy of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
