package jobpool

import (
	"errors"
	"fmt"
	"sync"
)

// RunAll executes jobs on a new Pool configured by opts and owns its lifecycle:
// Start, submit every job, Wait, Stop.
//
// The returned error joins every recovered panic (as *JobPanicError, in
// completion order) and every rejected nil job; it is nil when all jobs ran
// cleanly. A PanicHandler given in opts is still called.
func RunAll(jobs []Job, opts ...Option) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	p, err := New(append(opts, withPanicCollector(collect))...)
	if err != nil {
		return err
	}
	if err = p.Start(); err != nil {
		return err
	}
	defer p.Stop()

	for i, j := range jobs {
		if err := p.Submit(j); err != nil {
			collect(fmt.Errorf("job %d: %w", i, err))
		}
	}
	p.Wait()

	mu.Lock()
	defer mu.Unlock()
	return errors.Join(errs...)
}

// withPanicCollector chains fn in front of any PanicHandler configured earlier.
func withPanicCollector(fn func(error)) Option {
	return func(cfg *config) error {
		user := cfg.PanicHandler
		cfg.PanicHandler = func(err error) {
			fn(err)
			if user != nil {
				user(err)
			}
		}
		return nil
	}
}
