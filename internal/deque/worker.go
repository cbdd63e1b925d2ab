// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package deque

import (
	"sync/atomic"
)

const (
	cacheLineSize = 64
	minCapacity   = 64
)

// Order selects which end of a [Worker] its owner pops from.
type Order uint8

const (
	// FIFO workers pop from the same end that stealers take from, so values
	// leave in the order they were pushed.
	FIFO Order = iota
	// LIFO workers pop the most recently pushed value.
	LIFO
)

func (o Order) String() string {
	switch o {
	case FIFO:
		return "FIFO"
	case LIFO:
		return "LIFO"
	default:
		return "Order(?)"
	}
}

// A ring buffer of atomic slots. Slots are atomic because a stealer may read a
// slot that the owner is concurrently rewriting; such a stealer always loses
// the compare-and-swap on top and discards what it read.
type buffer[T any] struct {
	slots []atomic.Pointer[T]
	mask  int64
}

func newBuffer[T any](capacity int) *buffer[T] {
	return &buffer[T]{
		slots: make([]atomic.Pointer[T], capacity),
		mask:  int64(capacity - 1),
	}
}

func (b *buffer[T]) capacity() int64 {
	return int64(len(b.slots))
}

func (b *buffer[T]) load(i int64) *T {
	return b.slots[i&b.mask].Load()
}

func (b *buffer[T]) store(i int64, v *T) {
	b.slots[i&b.mask].Store(v)
}

// Returns a buffer of twice the capacity holding the values in [top, bottom).
// The old buffer is left intact for stealers that still hold it.
func (b *buffer[T]) grow(top, bottom int64) *buffer[T] {
	nb := newBuffer[T](len(b.slots) * 2)
	for i := top; i < bottom; i++ {
		nb.store(i, b.load(i))
	}
	return nb
}

// State shared by a Worker and its Stealers. Indices grow without bound; a
// value at index i lives in slot i&mask. Stealers advance top, the owner
// advances bottom (and, for FIFO workers, also top).
type inner[T any] struct {
	top    atomic.Int64
	_      [cacheLineSize - 8]byte
	bottom atomic.Int64
	_      [cacheLineSize - 8]byte
	buffer atomic.Pointer[buffer[T]]
}

// Worker is an unbounded Chase-Lev work-stealing deque. Push and Pop may only
// be called by the goroutine that owns the Worker. Any number of goroutines may
// steal from it through [Worker.Stealer].
type Worker[T any] struct {
	inner *inner[T]
	order Order
}

// NewWorker creates an empty Worker whose owner pops in the given order.
func NewWorker[T any](order Order) *Worker[T] {
	if order != FIFO && order != LIFO {
		panic("invalid worker order")
	}
	in := &inner[T]{}
	in.buffer.Store(newBuffer[T](minCapacity))
	return &Worker[T]{inner: in, order: order}
}

// Order reports the end of the deque that the owner pops from.
func (w *Worker[T]) Order() Order {
	return w.order
}

// Stealer returns a handle through which other goroutines may steal from w.
func (w *Worker[T]) Stealer() *Stealer[T] {
	return &Stealer[T]{inner: w.inner}
}

// Push adds v to the bottom of the deque, growing the buffer as needed.
func (w *Worker[T]) Push(v *T) {
	if v == nil {
		panic("nil value pushed to worker")
	}
	in := w.inner
	b := in.bottom.Load()
	t := in.top.Load()
	buf := in.buffer.Load()
	if b-t >= buf.capacity() {
		buf = buf.grow(t, b)
		in.buffer.Store(buf)
	}
	buf.store(b, v)
	// Publishing the new bottom makes the slot visible to stealers.
	in.bottom.Store(b + 1)
}

// Pop removes a value from the owner's end of the deque, or returns nil if the
// deque is empty. A Pop never returns a value that a concurrent steal returns.
func (w *Worker[T]) Pop() *T {
	if w.order == FIFO {
		return w.popFront()
	}
	return w.popBack()
}

// The owner competes with stealers on top, so it simply retries on a lost
// race until it either wins a value or observes emptiness.
func (w *Worker[T]) popFront() *T {
	in := w.inner
	for {
		t := in.top.Load()
		b := in.bottom.Load()
		if t >= b {
			return nil
		}
		v := in.buffer.Load().load(t)
		if in.top.CompareAndSwap(t, t+1) {
			return v
		}
	}
}

// Reserving the bottom slot before reading top ensures that a stealer racing
// for the same value can only be the one that takes the last element, and that
// race is settled by a compare-and-swap on top.
func (w *Worker[T]) popBack() *T {
	in := w.inner
	b := in.bottom.Load() - 1
	buf := in.buffer.Load()
	in.bottom.Store(b)
	t := in.top.Load()
	if t > b {
		// Empty: restore bottom.
		in.bottom.Store(b + 1)
		return nil
	}
	v := buf.load(b)
	if t == b {
		// Last value, contested with stealers.
		if !in.top.CompareAndSwap(t, t+1) {
			v = nil
		}
		in.bottom.Store(b + 1)
	}
	return v
}

// Len returns the number of values in the deque. It is exact only when called
// by the owner while no steals are in progress.
func (w *Worker[T]) Len() int {
	return w.inner.len()
}

func (in *inner[T]) len() int {
	b := in.bottom.Load()
	t := in.top.Load()
	return int(max(b-t, 0))
}

// Stealer takes values from the top of a [Worker]. It is safe for concurrent
// use by any number of goroutines and carries no right to push.
type Stealer[T any] struct {
	inner *inner[T]
}

// IsEmpty reports whether the underlying deque appeared empty.
func (s *Stealer[T]) IsEmpty() bool {
	return s.inner.len() == 0
}

// Steal makes a single attempt at taking the value at the top of the deque.
func (s *Stealer[T]) Steal() Steal[T] {
	in := s.inner
	t := in.top.Load()
	b := in.bottom.Load()
	if t >= b {
		return Empty[T]()
	}
	// The buffer must be loaded after bottom so that it holds index t.
	v := in.buffer.Load().load(t)
	if !in.top.CompareAndSwap(t, t+1) {
		return Retry[T]()
	}
	return Success(v)
}
