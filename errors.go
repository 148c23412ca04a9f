package jobpool

import "errors"

const Namespace = "jobpool"

var (
	ErrNotRunning    = errors.New(Namespace + ": cannot submit a job to a pool that is not running")
	ErrNilJob        = errors.New(Namespace + ": job is nil")
	ErrJobPanicked   = errors.New(Namespace + ": job execution panicked")
	ErrWorkerStart   = errors.New(Namespace + ": worker failed to start")
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
)
