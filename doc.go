// Package jobpool provides a fixed-size worker pool that executes opaque jobs
// asynchronously and lets callers wait until all submitted work has finished.
//
// Lifecycle
//   - New(opts...) returns a stopped Pool.
//   - Start spawns one worker per CPU (runtime.NumCPU, at least one). Calling it
//     again while running is a no-op.
//   - Stop signals the workers, waits for them and discards any job still queued.
//     Jobs already claimed by a worker run to completion. Call Wait first when
//     every submitted job must run.
//   - A stopped Pool can be started again and behaves as freshly created.
//
// Submission and completion
//   - Submit enqueues a Job (func()) and wakes one idle worker. It returns
//     ErrNotRunning when the Pool is not running and ErrNilJob for nil jobs.
//     The queue is unbounded.
//   - Busy reports whether any submitted job is still queued or executing.
//   - Wait blocks until Busy becomes false; WaitContext bounds the wait.
//     WithSpinWait switches both to a yield loop.
//
// Failures
// A job that panics does not take its worker down. The panic is recovered,
// wrapped in a *JobPanicError (errors.Is(err, ErrJobPanicked)), logged, passed to
// the PanicHandler and sent to Errors() when enabled, and the job counts as
// completed.
//
// Defaults
//   - Logger: discards output
//   - Metrics: metrics.NoopProvider
//   - PanicHandler: none
//   - ErrorsBufferSize: 0 (Errors returns nil)
//   - SpinWait: false
package jobpool
