package jobpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/ygrebnov/jobpool/metrics"
)

// Pool is a fixed-size pool of long-lived worker goroutines consuming jobs from
// a shared FIFO queue. A Pool starts stopped; call Start before Submit.
// Methods are safe for concurrent use. Pools are independent of each other.
type Pool struct {
	// noCopy prevents accidental copying of the pool.
	//go:nocopy
	nc noCopy

	config *config

	// lifecycle serializes Start and Stop.
	lifecycle sync.Mutex

	// wakeMu guards transitions of alive and is the lock behind wake.
	// It is never held while a job executes.
	wakeMu sync.Mutex
	wake   *sync.Cond
	alive  atomic.Bool

	queue      jobQueue
	tracker    *tracker
	workers    sync.WaitGroup
	numWorkers atomic.Int64

	failures *failureReporter
	inst     instruments

	// lifetime totals, not reset by Stop
	panicked atomic.Uint64
	dropped  atomic.Uint64
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// instruments are resolved once at construction.
type instruments struct {
	submitted metrics.Counter
	completed metrics.Counter
	panicked  metrics.Counter
	dropped   metrics.Counter
	queued    metrics.UpDownCounter
	workers   metrics.UpDownCounter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider) instruments {
	return instruments{
		submitted: p.Counter(metrics.JobsSubmitted, metrics.WithDescription("Jobs accepted by Submit."), metrics.WithUnit("1")),
		completed: p.Counter(metrics.JobsCompleted, metrics.WithDescription("Jobs that finished executing, including panicked ones."), metrics.WithUnit("1")),
		panicked:  p.Counter(metrics.JobsPanicked, metrics.WithDescription("Jobs that panicked."), metrics.WithUnit("1")),
		dropped:   p.Counter(metrics.JobsDropped, metrics.WithDescription("Queued jobs discarded by Stop."), metrics.WithUnit("1")),
		queued:    p.UpDownCounter(metrics.JobsQueued, metrics.WithDescription("Jobs waiting in the queue."), metrics.WithUnit("1")),
		workers:   p.UpDownCounter(metrics.Workers, metrics.WithDescription("Running worker goroutines."), metrics.WithUnit("1")),
		duration:  p.Histogram(metrics.JobDuration, metrics.WithDescription("Job execution time."), metrics.WithUnit("seconds")),
	}
}

// Stats is a point-in-time snapshot of a Pool.
type Stats struct {
	Workers   int
	Submitted uint64
	Completed uint64
	Queued    int
	// Panicked and Dropped are totals over the lifetime of the Pool.
	Panicked uint64
	Dropped  uint64
}

// New creates a stopped Pool using functional options.
func New(opts ...Option) (*Pool, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}

	p := &Pool{
		config:  &cfg,
		tracker: newTracker(),
		inst:    newInstruments(cfg.Metrics),
	}
	p.wake = sync.NewCond(&p.wakeMu)
	p.failures = newFailureReporter(&cfg, func() {
		p.panicked.Add(1)
		p.inst.panicked.Add(1)
	})
	return p, nil
}

func hardwareParallelism() int {
	return runtime.NumCPU()
}

// Submit enqueues job for asynchronous execution on a worker and returns immediately.
// It fails with ErrNotRunning outside Start/Stop and with ErrNilJob for a nil job.
// The queue is unbounded; Submit never waits for a free worker.
func (p *Pool) Submit(job Job) error {
	if job == nil {
		return ErrNilJob
	}

	p.wakeMu.Lock()
	defer p.wakeMu.Unlock()

	if !p.alive.Load() {
		return ErrNotRunning
	}

	seq := p.tracker.submit()
	p.inst.submitted.Add(1)
	p.inst.queued.Add(1)
	p.queue.enqueue(queuedJob{job: job, seq: seq})
	p.wake.Signal()
	return nil
}

// Busy reports whether any submitted job has not completed yet. It never blocks.
func (p *Pool) Busy() bool {
	return p.tracker.busy()
}

// Wait blocks until every submitted job has completed.
// It must not be called from inside a job: the job itself is outstanding.
func (p *Pool) Wait() {
	if p.config.SpinWait {
		_ = p.tracker.spin(context.Background())
		return
	}
	p.tracker.wait()
}

// WaitContext is Wait bounded by ctx. It returns ctx.Err() if ctx is done first.
func (p *Pool) WaitContext(ctx context.Context) error {
	if p.config.SpinWait {
		return p.tracker.spin(ctx)
	}
	return p.tracker.waitContext(ctx)
}

// Running reports whether the pool is between a successful Start and Stop.
func (p *Pool) Running() bool {
	return p.alive.Load()
}

// Workers returns the number of worker goroutines, zero when stopped.
func (p *Pool) Workers() int {
	return int(p.numWorkers.Load())
}

// Errors returns the channel receiving recovered job panics (*JobPanicError).
// It is nil unless WithErrorsBuffer was given a non-zero size. The channel is
// never closed.
func (p *Pool) Errors() <-chan error {
	return p.failures.errors
}

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() Stats {
	return Stats{
		Workers:   p.Workers(),
		Submitted: p.tracker.submitted.Load(),
		Completed: p.tracker.completed.Load(),
		Queued:    p.queue.len(),
		Panicked:  p.panicked.Load(),
		Dropped:   p.dropped.Load(),
	}
}
