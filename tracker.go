package jobpool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// tracker answers "is any work outstanding?" from two monotonically increasing
// counters instead of per-job handles. Invariant: completed <= submitted, and
// submitted-completed is the number of jobs queued or executing.
//
// Counters are lock-free. The mutex and cond exist only so that waiters can sleep
// until completed catches up with submitted.
type tracker struct {
	submitted atomic.Uint64
	completed atomic.Uint64

	mu   sync.Mutex
	idle *sync.Cond
}

func newTracker() *tracker {
	t := &tracker{}
	t.idle = sync.NewCond(&t.mu)
	return t
}

// submit accounts for a new job and returns its sequence number.
func (t *tracker) submit() uint64 {
	return t.submitted.Add(1)
}

// complete accounts for a finished job and wakes waiters once the pool drains.
func (t *tracker) complete() {
	if t.completed.Add(1) == t.submitted.Load() {
		t.broadcast()
	}
}

func (t *tracker) busy() bool {
	return t.completed.Load() < t.submitted.Load()
}

// wait blocks until no work is outstanding. The predicate is re-checked under
// the cond mutex, which complete also takes before broadcasting.
func (t *tracker) wait() {
	t.mu.Lock()
	for t.busy() {
		t.idle.Wait()
	}
	t.mu.Unlock()
}

// waitContext is wait bounded by ctx.
func (t *tracker) waitContext(ctx context.Context) error {
	if !t.busy() {
		return nil
	}

	stop := context.AfterFunc(ctx, t.broadcast)
	defer stop()

	t.mu.Lock()
	defer t.mu.Unlock()
	for t.busy() {
		if err := ctx.Err(); err != nil {
			return err
		}
		t.idle.Wait()
	}
	return nil
}

// spin is the yield-loop wait strategy: it burns CPU between checks instead of
// sleeping on the cond.
func (t *tracker) spin(ctx context.Context) error {
	for t.busy() {
		if err := ctx.Err(); err != nil {
			return err
		}
		runtime.Gosched()
	}
	return nil
}

// reset zeroes both counters and releases anyone still waiting.
func (t *tracker) reset() {
	t.completed.Store(0)
	t.submitted.Store(0)
	t.broadcast()
}

func (t *tracker) broadcast() {
	t.mu.Lock()
	t.idle.Broadcast()
	t.mu.Unlock()
}
