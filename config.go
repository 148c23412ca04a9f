package jobpool

import (
	"io"
	"log/slog"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/jobpool/metrics"
)

// config holds Pool configuration.
// The number of workers is intentionally absent: it is always derived from the
// hardware parallelism detected at Start.
type config struct {
	// Logger receives lifecycle and failure records.
	// Default: a logger that discards everything.
	Logger *slog.Logger

	// Metrics records pool instruments.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider

	// PanicHandler is called on the worker goroutine for every recovered job panic,
	// before the job is counted as completed.
	// Default: nil.
	PanicHandler func(error)

	// ErrorsBufferSize enables the Errors channel with the given capacity.
	// Default: 0 (channel disabled).
	ErrorsBufferSize uint

	// SpinWait makes Wait poll and yield instead of sleeping on a condition.
	// Default: false.
	SpinWait bool

	// OnWorkerStart runs on every worker goroutine before it starts consuming jobs.
	// A non-nil error aborts Start.
	OnWorkerStart func(id int) error

	// OnWorkerStop runs on every worker goroutine after it leaves its loop.
	OnWorkerStop func(id int)

	// parallelism reports the worker count; overridden in tests only.
	parallelism func() int
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:          metrics.NewNoopProvider(),
		PanicHandler:     nil,
		ErrorsBufferSize: 0,
		SpinWait:         false,
		parallelism:      hardwareParallelism,
	}
}

// validateConfig checks invariants that options cannot enforce on their own.
func validateConfig(cfg *config) error {
	if cfg.Logger == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", "logger must not be nil"))
	}
	if cfg.Metrics == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", "metrics provider must not be nil"))
	}
	if cfg.parallelism == nil {
		return errorc.With(ErrInvalidConfig, errorc.String("", "parallelism probe must not be nil"))
	}
	return nil
}

// Option configures a Pool. Use New(opts...) to construct a Pool via options.
type Option func(*config) error

// WithLogger sets the structured logger used by the pool.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider used to record pool instruments.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}

// WithPanicHandler registers a callback receiving a *JobPanicError for every job that panics.
// The callback runs on the worker goroutine and must not block for long.
func WithPanicHandler(fn func(error)) Option {
	return func(cfg *config) error { cfg.PanicHandler = fn; return nil }
}

// WithErrorsBuffer enables the Errors channel with the given buffer size.
// Delivery is best-effort: failures are dropped when the buffer is full.
func WithErrorsBuffer(size uint) Option {
	return func(cfg *config) error { cfg.ErrorsBufferSize = size; return nil }
}

// WithSpinWait makes Wait and WaitContext poll the counters and yield the
// goroutine between checks instead of blocking on a condition variable.
func WithSpinWait() Option {
	return func(cfg *config) error { cfg.SpinWait = true; return nil }
}

// WithOnWorkerStart registers a hook run by each worker before it accepts jobs.
// If any hook returns an error, Start fails with ErrWorkerStart and no worker keeps running.
func WithOnWorkerStart(fn func(id int) error) Option {
	return func(cfg *config) error { cfg.OnWorkerStart = fn; return nil }
}

// WithOnWorkerStop registers a hook run by each worker after it exits its loop.
func WithOnWorkerStop(fn func(id int)) Option {
	return func(cfg *config) error { cfg.OnWorkerStop = fn; return nil }
}
