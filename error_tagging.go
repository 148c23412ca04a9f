package jobpool

import (
	"errors"
	"fmt"
)

// JobPanicError describes a job that panicked. It unwraps to ErrJobPanicked and
// carries the metadata needed to correlate the failure with its submission.
type JobPanicError struct {
	value  any
	stack  []byte
	seq    uint64
	worker int
}

func newJobPanicError(value any, stack []byte, seq uint64, worker int) *JobPanicError {
	return &JobPanicError{value: value, stack: stack, seq: seq, worker: worker}
}

func (e *JobPanicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrJobPanicked, e.value)
}

func (e *JobPanicError) Unwrap() error { return ErrJobPanicked }

// Seq returns the submission sequence number of the job (1-based since the last Start).
func (e *JobPanicError) Seq() uint64 { return e.seq }

// Worker returns the id of the worker that executed the job.
func (e *JobPanicError) Worker() int { return e.worker }

// Value returns the value passed to panic.
func (e *JobPanicError) Value() any { return e.value }

// Stack returns the goroutine stack captured at recovery time.
func (e *JobPanicError) Stack() []byte { return e.stack }

func (e *JobPanicError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "job(seq=%d,worker=%d): %s\n%s", e.seq, e.worker, e.Error(), e.stack)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractJobSeq returns the job sequence number from err if present.
func ExtractJobSeq(err error) (uint64, bool) {
	var pe *JobPanicError
	if errors.As(err, &pe) {
		return pe.Seq(), true
	}
	return 0, false
}

// ExtractWorker returns the id of the worker that ran the failed job, if present.
func ExtractWorker(err error) (int, bool) {
	var pe *JobPanicError
	if errors.As(err, &pe) {
		return pe.Worker(), true
	}
	return 0, false
}
