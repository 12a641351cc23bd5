// Package pipeline holds the two synchronisation primitives shared by the
// capture and render loops: an unbounded lock-free queue and a reset flag.
package pipeline

import "go.uber.org/atomic"

type node[T any] struct {
	next  atomic.Pointer[node[T]]
	value T
}

// Queue is an unbounded multi-producer single-consumer FIFO.
//
// Push never blocks and may be called from any goroutine. TryPop is the only
// way to take items and never waits: it must be called from a single
// consumer goroutine at a time. Items pushed by one producer are popped in
// the order they were pushed.
type Queue[T any] struct {
	head  atomic.Pointer[node[T]] // last pushed node, swapped by producers
	tail  *node[T]                // consumer-owned sentinel
	count atomic.Int64
}

// NewQueue returns an empty queue.
func NewQueue[T any]() *Queue[T] {
	stub := &node[T]{}
	q := &Queue[T]{tail: stub}
	q.head.Store(stub)
	return q
}

// Push appends v to the queue.
func (q *Queue[T]) Push(v T) {
	n := &node[T]{value: v}
	q.count.Inc()
	prev := q.head.Swap(n)
	// Between the swap and this store the consumer sees the queue as ending
	// at prev; it treats that as empty and retries on its next poll.
	prev.next.Store(n)
}

// TryPop removes the oldest item. ok is false when nothing is available.
func (q *Queue[T]) TryPop() (v T, ok bool) {
	next := q.tail.next.Load()
	if next == nil {
		return v, false
	}
	v = next.value
	var zero T
	next.value = zero
	q.tail = next
	q.count.Dec()
	return v, true
}

// Len returns an approximate number of pending items.
func (q *Queue[T]) Len() int {
	if n := q.count.Load(); n > 0 {
		return int(n)
	}
	return 0
}
