package jobpool

import (
	"errors"
	"sync"
)

// Start spawns one worker per available CPU (at least one) and makes the pool
// accept jobs. Calling Start on a running pool is a no-op.
//
// If an OnWorkerStart hook fails, every spawned worker is torn down, the pool
// stays stopped and the returned error wraps ErrWorkerStart.
func (p *Pool) Start() error {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if p.alive.Load() {
		return nil
	}

	n := max(1, p.config.parallelism())
	p.tracker.reset()

	ready := make(chan error, n)
	gate := make(chan struct{})
	for id := range n {
		p.workers.Add(1)
		go newWorker(id, p).run(ready, gate)
	}

	var errs []error
	for range n {
		if err := <-ready; err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		close(gate)
		p.shutdown(0).run()
		err := errors.Join(errs...)
		p.config.Logger.Error("pool start failed", "error", err)
		return err
	}

	p.setAlive(true)
	p.numWorkers.Store(int64(n))
	p.inst.workers.Add(int64(n))
	close(gate)

	p.config.Logger.Info("pool started", "workers", n)
	return nil
}

// Stop signals every worker to exit, waits for them, and discards jobs still in
// the queue. A worker in the middle of a job finishes that job first; queued
// jobs never run. Call Wait before Stop to run everything to completion.
// Stop on a stopped pool is a no-op. It must not be called from inside a job.
func (p *Pool) Stop() {
	p.lifecycle.Lock()
	defer p.lifecycle.Unlock()

	if !p.alive.Load() {
		return
	}
	p.shutdown(p.Workers()).run()
}

func (p *Pool) setAlive(v bool) {
	p.wakeMu.Lock()
	p.alive.Store(v)
	p.wake.Broadcast()
	p.wakeMu.Unlock()
}

// shutdown wires the stop sequence for a pool currently running n workers.
func (p *Pool) shutdown(n int) *shutdownSequence {
	return newShutdownSequence(
		func() { p.setAlive(false) },
		&p.workers,
		p.queue.clear,
		func() {
			p.tracker.reset()
			p.numWorkers.Store(0)
			if n > 0 {
				p.inst.workers.Add(-int64(n))
			}
		},
		func(dropped int) {
			if dropped > 0 {
				p.dropped.Add(uint64(dropped))
				p.inst.dropped.Add(int64(dropped))
				p.inst.queued.Add(-int64(dropped))
			}
			if n > 0 {
				p.config.Logger.Info("pool stopped", "workers", n, "dropped", dropped)
			}
		},
	)
}

// shutdownSequence orders the steps of stopping a pool. It doesn't own any
// state; each step is supplied by the caller.
type shutdownSequence struct {
	signal  func()
	workers *sync.WaitGroup
	discard func() int
	reset   func()
	report  func(dropped int)
}

func newShutdownSequence(
	signal func(),
	workers *sync.WaitGroup,
	discard func() int,
	reset func(),
	report func(dropped int),
) *shutdownSequence {
	return &shutdownSequence{signal: signal, workers: workers, discard: discard, reset: reset, report: report}
}

// run executes, in order:
// 1) signal workers to stop and wake the sleeping ones
// 2) join every worker
// 3) discard jobs left in the queue
// 4) reset counters and worker count
// 5) report how many jobs were discarded
func (s *shutdownSequence) run() {
	if s.signal != nil {
		s.signal()
	}
	if s.workers != nil {
		s.workers.Wait()
	}
	dropped := 0
	if s.discard != nil {
		dropped = s.discard()
	}
	if s.reset != nil {
		s.reset()
	}
	if s.report != nil {
		s.report(dropped)
	}
}
