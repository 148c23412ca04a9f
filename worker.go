package jobpool

import (
	"fmt"
	"time"
)

type worker struct {
	id   int
	pool *Pool
}

func newWorker(id int, p *Pool) *worker {
	return &worker{id: id, pool: p}
}

// run reports readiness on ready, waits for gate to close, then consumes jobs
// until the pool stops.
func (w *worker) run(ready chan<- error, gate <-chan struct{}) {
	p := w.pool
	defer p.workers.Done()

	if hook := p.config.OnWorkerStart; hook != nil {
		if err := hook(w.id); err != nil {
			ready <- fmt.Errorf("%w: worker %d: %w", ErrWorkerStart, w.id, err)
			return
		}
	}
	ready <- nil
	<-gate

	p.config.Logger.Debug("worker started", "worker", w.id)
	defer func() {
		if hook := p.config.OnWorkerStop; hook != nil {
			hook(w.id)
		}
		p.config.Logger.Debug("worker stopped", "worker", w.id)
	}()

	for {
		j, ok := p.next()
		if !ok {
			return
		}
		w.execute(j)
	}
}

// execute runs one job inside the failure boundary. A panicking job is reported
// and still counted as completed, so the counters stay consistent.
func (w *worker) execute(j queuedJob) {
	p := w.pool
	p.inst.queued.Add(-1)

	start := time.Now()
	err := j.run(w.id)
	p.inst.duration.Record(time.Since(start).Seconds())

	if err != nil {
		p.failures.report(err)
	}

	p.inst.completed.Add(1)
	p.tracker.complete()
}

// next returns the next job, sleeping while the queue is empty. It returns false
// once the pool is no longer alive, even if jobs remain queued.
func (p *Pool) next() (queuedJob, bool) {
	for {
		if !p.alive.Load() {
			return queuedJob{}, false
		}
		if j, ok := p.queue.dequeue(); ok {
			return j, true
		}

		p.wakeMu.Lock()
		for p.alive.Load() && p.queue.isEmpty() {
			p.wake.Wait()
		}
		p.wakeMu.Unlock()
	}
}
