package jobpool

// failureReporter delivers recovered job panics out of band: to the logger, the
// optional PanicHandler and the optional errors channel. It runs on worker
// goroutines and never blocks on the channel.
type failureReporter struct {
	cfg     *config
	errors  chan error
	onPanic func()
}

func newFailureReporter(cfg *config, onPanic func()) *failureReporter {
	r := &failureReporter{cfg: cfg, onPanic: onPanic}
	if cfg.ErrorsBufferSize > 0 {
		r.errors = make(chan error, cfg.ErrorsBufferSize)
	}
	return r
}

func (r *failureReporter) report(err error) {
	if r.onPanic != nil {
		r.onPanic()
	}

	seq, _ := ExtractJobSeq(err)
	worker, _ := ExtractWorker(err)
	r.cfg.Logger.Error("job panicked", "seq", seq, "worker", worker, "error", err)

	if r.cfg.PanicHandler != nil {
		r.callHandler(err)
	}

	if r.errors != nil {
		select {
		case r.errors <- err:
		default:
			r.cfg.Logger.Warn("errors buffer full, dropping job failure", "seq", seq)
		}
	}
}

// callHandler shields the worker from a panicking PanicHandler.
func (r *failureReporter) callHandler(err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.cfg.Logger.Error("panic handler panicked", "panic", rec)
		}
	}()
	r.cfg.PanicHandler(err)
}
