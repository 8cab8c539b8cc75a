package scheduler

import (
	"errors"
	"sync"

	"github.com/eapache/queue"
)

var (
	ErrQueueClosed = errors.New("queue is closed")
)

// Queue is an unbounded FIFO shared by any number of producers and consumers.
//
// Items are kept in a ring buffer that grows and shrinks with the backlog.
// Pop blocks until an item arrives or the queue is closed; items pushed before
// Close are still handed out, so closing a queue drains it rather than dropping work.
type Queue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  *queue.Queue
	closed bool
}

// NewQueue creates an empty, open queue.
func NewQueue[T any]() *Queue[T] {
	q := &Queue[T]{items: queue.New()}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push appends v to the tail of the queue and wakes one waiting consumer.
// It returns ErrQueueClosed once Close has been called.
func (q *Queue[T]) Push(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	q.items.Add(v)
	q.cond.Signal()
	return nil
}

// Pop removes and returns the head of the queue, blocking while the queue is
// empty and open. ok is false only when the queue is closed and fully drained.
func (q *Queue[T]) Pop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.items.Length() == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.items.Length() == 0 {
		return v, false
	}
	return q.items.Remove().(T), true
}

// TryPop is the non-blocking form of Pop.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Length() == 0 {
		return v, false
	}
	return q.items.Remove().(T), true
}

// Close stops the queue from accepting new items and releases every blocked
// consumer. Calling Close more than once is a no-op.
func (q *Queue[T]) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Length()
}

// Closed reports whether Close has been called.
func (q *Queue[T]) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
