// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"iter"
)

// An Awaiter is passed to the body of an [Async] future and must be passed
// along to every [Await] it makes. It must not be retained or used from
// another goroutine.
type Awaiter struct {
	cx       *Context
	yield    func(struct{}) bool
	finished bool
}

// Async returns a future that runs body as a coroutine. The body executes on
// whatever worker polls the future, and each pending [Await] suspends it until
// the next poll, leaving the worker free to run other tasks in the meantime.
// A panic raised by the body propagates out of Poll.
func Async[T any](body func(aw *Awaiter) T) Future[T] {
	if body == nil {
		panic("future must be non-nil")
	}
	return &asyncFuture[T]{body: body}
}

type asyncFuture[T any] struct {
	body     func(*Awaiter) T
	aw       Awaiter
	next     func() (struct{}, bool)
	result   T
	finished bool
}

func (a *asyncFuture[T]) Poll(cx *Context) (T, bool) {
	if a.finished {
		return a.result, true
	}
	if a.next == nil {
		body := a.body
		a.next, _ = iter.Pull(func(yield func(struct{}) bool) {
			a.aw.yield = yield
			a.result = body(&a.aw)
		})
		a.body = nil
	}
	a.aw.cx = cx
	if _, suspended := a.next(); suspended {
		a.aw.cx = nil
		var zero T
		return zero, false
	}
	a.aw.cx = nil
	a.aw.finished = true
	a.next = nil
	a.finished = true
	return a.result, true
}

// Await polls f on behalf of the enclosing [Async] body, suspending the body
// each time f is pending, and returns f's result once it completes.
func Await[T any](aw *Awaiter, f Future[T]) T {
	if aw.finished {
		panic("await called on a finished async body")
	}
	if aw.yield == nil {
		panic("await called outside of an async body")
	}
	for {
		if v, ok := f.Poll(aw.cx); ok {
			return v
		}
		if !aw.yield(struct{}{}) {
			panic("async body resumed after being stopped")
		}
	}
}
