// Package queue implements an intrusive, lock-free multi-producer /
// single-consumer queue, the primitive underneath every actor mailbox and
// the scheduler's run-queue.
package queue

import "sync/atomic"

// Node is one link in the queue. next is owned by the queue (or the
// free-list) that currently holds the node; a node is reachable from
// exactly one of those at any time, never both.
type Node[T any] struct {
	next  atomic.Pointer[Node[T]]
	Value T
}

// MPSC is a Vyukov-style intrusive queue: producers race on an atomic
// exchange of the tail pointer, the single consumer follows next-links
// from the head. head is also an atomic.Pointer, even though only the
// consumer ever writes it, because PushReturningPreviousTail reads it
// from every producer goroutine to decide wasEmpty — an unsynchronized
// read there would race with the consumer's TryPop write. Both ends are
// allocation-free given recycled nodes from Pool.
type MPSC[T any] struct {
	head atomic.Pointer[Node[T]]
	tail atomic.Pointer[Node[T]]

	pool Pool[T]
}

// New returns an empty queue seeded with a stub node, so push and pop
// never need to special-case the zero-node state.
func New[T any]() *MPSC[T] {
	stub := &Node[T]{}
	q := &MPSC[T]{}
	q.head.Store(stub)
	q.tail.Store(stub)
	return q
}

// Push appends a value, allocating (or recycling, via the pool) the node
// that carries it. Safe for any number of concurrent callers.
func (q *MPSC[T]) Push(v T) {
	q.PushReturningPreviousTail(v)
}

// PushReturningPreviousTail pushes v and reports whether the queue was
// empty immediately before this push (previous tail was the stub the
// consumer has already drained past), which is how a mailbox decides it
// was the push that must wake a blocked reader.
func (q *MPSC[T]) PushReturningPreviousTail(v T) (wasEmpty bool) {
	n := q.pool.get()
	n.Value = v
	n.next.Store(nil)

	prev := q.tail.Swap(n)
	wasEmpty = prev == q.head.Load() && prev.next.Load() == nil
	prev.next.Store(n)
	return wasEmpty
}

// TryPop removes and returns the oldest value. ok is false if the queue
// is empty. Must only be called from a single consumer goroutine.
func (q *MPSC[T]) TryPop() (v T, ok bool) {
	head := q.head.Load()
	next := head.next.Load()
	if next == nil {
		var zero T
		return zero, false
	}

	q.head.Store(next)
	v = next.Value
	var zero T
	next.Value = zero

	q.pool.put(head)
	return v, true
}

// Empty reports whether the queue currently holds no items. Racy with
// concurrent pushes by design: it may report true while a push is still
// linking its node in, but when it reports false the next TryPop
// succeeds.
func (q *MPSC[T]) Empty() bool {
	return q.head.Load().next.Load() == nil
}
