// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"context"
	"sync/atomic"

	"github.com/petenewcomb/wsexec-go/internal/nbcq"
)

// A Handle is the completion handle of a spawned task. It resolves exactly
// once, when the task completes, and then always reports the same result.
//
// A Handle is itself a [Future], so tasks can await one another. Goroutines
// that are not tasks can use [Handle.Wait] or [Handle.Done] instead.
type Handle[T any] struct {
	// The handle is ready if and only if outcome is non-nil.
	outcome atomic.Pointer[outcome[T]]
	wakers  nbcq.Queue[Waker]
	done    chan struct{}
}

type outcome[T any] struct {
	value T
	err   *PanicError
}

func newHandle[T any]() *Handle[T] {
	h := &Handle[T]{
		done: make(chan struct{}),
	}
	h.wakers.Init()
	return h
}

func (h *Handle[T]) complete(o *outcome[T]) {
	if !h.outcome.CompareAndSwap(nil, o) {
		panic("task completed more than once")
	}
	close(h.done)
	for {
		w, ok := h.wakers.PopFront()
		if !ok {
			break
		}
		w.Wake()
	}
}

func (h *Handle[T]) isComplete() bool {
	return h.outcome.Load() != nil
}

// Poll returns the task's result once it is ready. Otherwise it registers the
// waker of cx to be called on completion and reports pending.
//
// If the task panicked, Poll panics with the task's [*PanicError], so that a
// task awaiting the handle fails the same way.
func (h *Handle[T]) Poll(cx *Context) (T, bool) {
	if o := h.outcome.Load(); o != nil {
		return o.unwrap(), true
	}
	if w := cx.Waker(); w != nil {
		h.wakers.PushBack(w)
		// Completion may have drained the wakers just before the push.
		if o := h.outcome.Load(); o != nil {
			return o.unwrap(), true
		}
	}
	var zero T
	return zero, false
}

func (o *outcome[T]) unwrap() T {
	if o.err != nil {
		panic(o.err)
	}
	return o.value
}

// Done returns a channel that is closed when the task completes.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the task completes or ctx is done. It returns the task's
// result, or a [*PanicError] if the task panicked, or ctx.Err().
//
// Wait must not be called from within a task, since that would block its
// worker. Tasks should poll or [Await] the handle instead.
func (h *Handle[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-h.done:
		return h.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the task's result without blocking. It returns [ErrNotReady]
// if the task has not yet completed.
func (h *Handle[T]) Result() (T, error) {
	o := h.outcome.Load()
	if o == nil {
		var zero T
		return zero, ErrNotReady
	}
	if o.err != nil {
		return o.value, o.err
	}
	return o.value, nil
}
