package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusProvider registers instruments with a prometheus.Registerer.
// Counters map to prometheus.Counter, up/down counters to prometheus.Gauge and
// histograms to prometheus.Histogram with the given buckets.
type PrometheusProvider struct {
	reg     prometheus.Registerer
	buckets []float64

	mu         sync.Mutex
	collectors map[string]prometheus.Collector
}

// NewPrometheusProvider returns a provider registering into reg.
// A nil reg means prometheus.DefaultRegisterer; nil buckets mean prometheus.DefBuckets.
func NewPrometheusProvider(reg prometheus.Registerer, buckets []float64) *PrometheusProvider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return &PrometheusProvider{reg: reg, buckets: buckets, collectors: make(map[string]prometheus.Collector)}
}

func (p *PrometheusProvider) Counter(name string, opts ...InstrumentOption) Counter {
	cfg := applyOptions(opts)
	c := p.collector(name, func() prometheus.Collector {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name: name, Help: help(name, cfg), ConstLabels: cfg.Attributes,
		})
	})
	return promCounter{c.(prometheus.Counter)}
}

func (p *PrometheusProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	cfg := applyOptions(opts)
	g := p.collector(name, func() prometheus.Collector {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Name: name, Help: help(name, cfg), ConstLabels: cfg.Attributes,
		})
	})
	return promGauge{g.(prometheus.Gauge)}
}

func (p *PrometheusProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	cfg := applyOptions(opts)
	h := p.collector(name, func() prometheus.Collector {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Name: name, Help: help(name, cfg), ConstLabels: cfg.Attributes, Buckets: p.buckets,
		})
	})
	return promHistogram{h.(prometheus.Histogram)}
}

// collector returns the collector cached under name, creating and registering it
// on first use. A collector already registered by someone else is reused.
func (p *PrometheusProvider) collector(name string, newFn func() prometheus.Collector) prometheus.Collector {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.collectors[name]; ok {
		return c
	}

	c := newFn()
	if err := p.reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			panic(err)
		}
		c = are.ExistingCollector
	}
	p.collectors[name] = c
	return c
}

func help(name string, cfg InstrumentConfig) string {
	if cfg.Description != "" {
		return cfg.Description
	}
	return name
}

type promCounter struct{ c prometheus.Counter }

func (c promCounter) Add(n int64) { c.c.Add(float64(n)) }

type promGauge struct{ g prometheus.Gauge }

func (g promGauge) Add(n int64) { g.g.Add(float64(n)) }

type promHistogram struct{ h prometheus.Histogram }

func (h promHistogram) Record(v float64) { h.h.Observe(v) }
