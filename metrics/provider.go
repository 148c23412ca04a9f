// Package metrics defines the instruments a jobpool.Pool records and ships
// three providers: Noop (default), Basic (in-memory) and Prometheus.
package metrics

// Instrument names recorded by jobpool.Pool.
const (
	JobsSubmitted = "jobpool_jobs_submitted_total"
	JobsCompleted = "jobpool_jobs_completed_total"
	JobsPanicked  = "jobpool_jobs_panicked_total"
	JobsDropped   = "jobpool_jobs_dropped_total"
	JobsQueued    = "jobpool_jobs_queued"
	Workers       = "jobpool_workers"
	JobDuration   = "jobpool_job_duration_seconds"
)

// Provider constructs instruments used to record metrics.
// Implementations must be safe for concurrent use and must return the same
// instrument for repeated calls with the same name.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts.
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that can move up or down (queue depth, worker count).
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of float64 measurements (durations in seconds).
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries optional instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
	// Attributes are static labels of the instrument itself. Keep cardinality bounded.
	Attributes map[string]string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets the instrument description (Prometheus help text).
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g., "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}

// WithAttributes attaches static attributes to the instrument.
func WithAttributes(attrs map[string]string) InstrumentOption {
	return func(c *InstrumentConfig) {
		if len(attrs) == 0 {
			return
		}
		if c.Attributes == nil {
			c.Attributes = make(map[string]string, len(attrs))
		}
		for k, v := range attrs {
			c.Attributes[k] = v
		}
	}
}

func applyOptions(opts []InstrumentOption) InstrumentConfig {
	var cfg InstrumentConfig
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return cfg
}
