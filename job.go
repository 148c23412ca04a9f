package jobpool

import (
	"runtime/debug"
)

// Job is an opaque unit of work with no arguments and no return value.
// Jobs that need to report an outcome should record it into state owned by the
// caller (closure capture); the pool only conveys that a job is done.
type Job func()

// queuedJob is a Job together with its submission sequence number (1-based,
// reset on every Start).
type queuedJob struct {
	job Job
	seq uint64
}

// run executes the job on the calling goroutine and converts a panic into a
// *JobPanicError. The worker that called run keeps running either way.
func (q queuedJob) run(workerID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newJobPanicError(r, debug.Stack(), q.seq, workerID)
		}
	}()

	q.job()
	return nil
}
