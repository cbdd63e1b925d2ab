// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package deque

import (
	"github.com/petenewcomb/wsexec-go/internal/nbcq"
)

// Injector is an unbounded lock-free FIFO queue that any goroutine may push to
// and that workers steal from, either one value at a time or in batches that
// refill their own [Worker]. Create one with [NewInjector].
type Injector[T any] struct {
	q nbcq.Queue[T]
}

func NewInjector[T any]() *Injector[T] {
	inj := &Injector[T]{}
	inj.q.Init()
	return inj
}

// Push appends v. It never blocks and never fails.
func (inj *Injector[T]) Push(v *T) {
	inj.q.PushBack(v)
}

// Len returns an approximation of the number of queued values.
func (inj *Injector[T]) Len() int {
	return inj.q.Len()
}

// IsEmpty reports whether the injector appeared empty.
func (inj *Injector[T]) IsEmpty() bool {
	return inj.q.Len() == 0
}

// Steal makes a single attempt at taking the value at the front of the queue.
func (inj *Injector[T]) Steal() Steal[T] {
	return fromPop(inj.q.TryPopFront())
}

// StealBatchAndPop takes the value at the front of the queue and moves up to
// limit-1 further values into dest, so that the caller can run the first
// value immediately and find the rest in its own deque. It takes at most about
// half of the queue, leaving the remainder for other workers.
//
// Only a lost race for the first value is reported as a retry. Once a value
// has been taken, contention on the following ones simply ends the batch.
func (inj *Injector[T]) StealBatchAndPop(dest *Worker[T], limit int) Steal[T] {
	if limit < 1 {
		panic("batch limit is less than one")
	}
	first := fromPop(inj.q.TryPopFront())
	if !first.IsSuccess() {
		return first
	}
	n := min(limit-1, (inj.q.Len()+1)/2)
	for range n {
		v, res := inj.q.TryPopFront()
		if res != nbcq.Popped {
			break
		}
		dest.Push(v)
	}
	return first
}

func fromPop[T any](v *T, res nbcq.PopResult) Steal[T] {
	switch res {
	case nbcq.Popped:
		return Success(v)
	case nbcq.Empty:
		return Empty[T]()
	default:
		return Retry[T]()
	}
}
