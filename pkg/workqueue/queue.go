package workqueue

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// WorkQueue is a FIFO queue of Payloads, unbounded by default (per spec, an
// implementation may bound the queue as long as producers block rather than
// drop). NewBoundedWorkQueue opts into the bounded form: Push blocks once
// capacity payloads are queued and not yet popped, rather than
// growing without limit — useful under device-blocking, where many
// Instances can share one device's thread and a slow backend would
// otherwise let the backlog grow unboundedly.
type WorkQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  []*Payload
	closed bool

	sem *semaphore.Weighted
}

// NewWorkQueue creates an empty, unbounded WorkQueue.
func NewWorkQueue() *WorkQueue {
	q := &WorkQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// NewBoundedWorkQueue creates an empty WorkQueue that blocks producers once
// capacity payloads are queued; a slot frees as soon as Pop hands a payload
// to the consumer, before that payload runs.
func NewBoundedWorkQueue(capacity int64) *WorkQueue {
	q := NewWorkQueue()
	q.sem = semaphore.NewWeighted(capacity)
	return q
}

// Push appends a payload to the tail of the queue and wakes one waiting
// consumer. On a bounded queue, Push blocks until a slot is free.
func (q *WorkQueue) Push(p *Payload) {
	if q.sem != nil {
		_ = q.sem.Acquire(context.Background(), 1)
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		if q.sem != nil {
			q.sem.Release(1)
		}
		return
	}
	q.items = append(q.items, p)
	q.cond.Signal()
}

// Pop blocks until a payload is available and returns it, FIFO order. It
// returns ok=false only once the queue has been closed and drained.
func (q *WorkQueue) Pop() (p *Payload, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	p = q.items[0]
	q.items = q.items[1:]
	if q.sem != nil {
		q.sem.Release(1)
	}
	return p, true
}

// Close marks the queue closed and wakes any blocked consumers; pending
// items already pushed are still delivered by Pop before it starts
// returning ok=false.
func (q *WorkQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.cond.Broadcast()
}
