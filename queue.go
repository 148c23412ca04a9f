package jobpool

import (
	"sync"

	"github.com/gammazero/deque"
)

// jobQueue is an unbounded FIFO of pending jobs guarded by a single mutex.
// Critical sections never span job execution.
type jobQueue struct {
	mu    sync.Mutex
	items deque.Deque[queuedJob]
}

func (q *jobQueue) enqueue(j queuedJob) {
	q.mu.Lock()
	q.items.PushBack(j)
	q.mu.Unlock()
}

// dequeue removes and returns the head job. It never blocks.
func (q *jobQueue) dequeue() (queuedJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		return queuedJob{}, false
	}
	return q.items.PopFront(), true
}

// clear discards every queued job and returns how many were dropped.
func (q *jobQueue) clear() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := q.items.Len()
	q.items.Clear()
	return n
}

func (q *jobQueue) isEmpty() bool {
	return q.len() == 0
}

func (q *jobQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}
