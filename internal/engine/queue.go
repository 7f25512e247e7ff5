package engine

import "sync"

// queue is an unbounded FIFO of job identifiers feeding the worker pool.
// Every newly created job is enqueued exactly once; idempotent replays never
// re-enqueue. Closing the queue wakes all blocked workers; identifiers still
// queued at close time are abandoned (their jobs stay pending).
type queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []string
	closed bool
}

func newQueue() *queue {
	q := &queue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Enqueue appends a job identifier. Enqueueing on a closed queue is a no-op.
func (q *queue) Enqueue(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.items = append(q.items, id)
	queueDepth.Set(float64(len(q.items)))
	q.cond.Signal()
}

// Dequeue blocks until an identifier is available or the queue is closed.
// The second return value is false once the queue is closed.
func (q *queue) Dequeue() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if q.closed {
		return "", false
	}

	id := q.items[0]
	q.items = q.items[1:]
	queueDepth.Set(float64(len(q.items)))
	return id, true
}

// Close marks the queue closed and wakes every blocked worker.
func (q *queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of identifiers waiting to be dequeued.
func (q *queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
