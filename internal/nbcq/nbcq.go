// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package nbcq implements the Non-Blocking Concurrent Queue Algorithm from
// "Simple, Fast, and Practical Non-Blocking and Blocking Concurrent Queue
// Algorithms" by Maged M. Michael and Michael L. Scott in PODC96 as corrected
// in JPDC, 1998. Step labels in the comments below (E1, D12, ...) refer to the
// pseudocode published at
// https://www.cs.rochester.edu/research/synchronization/pseudocode/queues.html
//
// Nodes are never recycled. The garbage collector keeps a node alive for as
// long as any goroutine still references it, so a pointer can never be
// reused while a stale compare-and-swap might observe it, and the
// modification counts of the original algorithm are not needed.
//
// The queue stores pointers. Storing nil is not allowed since a nil value
// marks a slot whose contents have been handed to a consumer.
package nbcq

import (
	"sync/atomic"
)

type node[T any] struct {
	value atomic.Pointer[T]
	next  atomic.Pointer[node[T]]
}

// Queue is an unbounded multi-producer, multi-consumer FIFO queue. It must be
// initialized with [Queue.Init] before use. All methods are lock-free.
type Queue[T any] struct {
	head atomic.Pointer[node[T]]
	tail atomic.Pointer[node[T]]
	len  atomic.Int64
}

// PopResult reports the outcome of a single [Queue.TryPopFront] attempt.
type PopResult int

const (
	// Popped means a value was removed from the queue.
	Popped PopResult = iota
	// Empty means the queue held no values when it was inspected.
	Empty
	// Contended means a concurrent operation invalidated the attempt. The
	// queue may or may not be empty.
	Contended
)

// Init makes the queue ready for use. An Init method is provided instead of a
// New function so that a Queue can be embedded by value.
func (q *Queue[T]) Init() {
	// Both Head and Tail point to a dummy node with a nil next pointer.
	dummy := &node[T]{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
}

// PushBack appends v to the queue. It never blocks and always succeeds.
func (q *Queue[T]) PushBack(v *T) {
	if v == nil {
		panic("nil value pushed to queue")
	}

	// E1-E3: allocate the node and fill in its value.
	n := &node[T]{}
	n.value.Store(v)

	// Count before linking so that Len never goes negative.
	q.len.Add(1)

	// E4: keep trying until the enqueue is done.
	for {
		// E5-E6
		tail := q.tail.Load()
		next := tail.next.Load()
		// E7: are tail and next consistent?
		if tail != q.tail.Load() {
			continue
		}
		if next == nil {
			// E9: try to link the node at the end of the list.
			if tail.next.CompareAndSwap(nil, n) {
				// E17: try to swing Tail to the inserted node. Failure means
				// another goroutine already helped.
				q.tail.CompareAndSwap(tail, n)
				return
			}
		} else {
			// E13: Tail was falling behind, help it along.
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

// PopFront removes and returns the value at the front of the queue, retrying
// internally on contention. Returns false only if the queue was empty.
func (q *Queue[T]) PopFront() (*T, bool) {
	for {
		v, res := q.TryPopFront()
		switch res {
		case Popped:
			return v, true
		case Empty:
			return nil, false
		}
	}
}

// TryPopFront makes a single attempt at removing the value at the front of the
// queue. It gives up and reports [Contended] rather than looping when another
// consumer wins the race for the head node.
func (q *Queue[T]) TryPopFront() (*T, PopResult) {
	for {
		// D2-D4
		head := q.head.Load()
		tail := q.tail.Load()
		next := head.next.Load()
		// D5: are head, tail, and next consistent?
		if head != q.head.Load() {
			return nil, Contended
		}
		if head == tail {
			// D7: is the queue empty?
			if next == nil {
				return nil, Empty
			}
			// D10: Tail is falling behind. Advancing it is not contention
			// with other consumers, so try again.
			q.tail.CompareAndSwap(tail, next)
			continue
		}
		// D13: try to swing Head to the next node, which becomes the new dummy.
		if !q.head.CompareAndSwap(head, next) {
			return nil, Contended
		}
		q.len.Add(-1)

		// D12 is moved after the CAS. Only the winner of the CAS may take the
		// value, and swapping it out releases the new dummy's reference for
		// the garbage collector.
		return next.value.Swap(nil), Popped
	}
}

// Len returns an approximation of the number of values in the queue. It is
// exact when the queue is quiescent.
func (q *Queue[T]) Len() int {
	return int(max(q.len.Load(), 0))
}
