// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

// A Future represents a computation that may need to be polled several times
// before it produces a result of type T.
//
// Poll returns the result and true once the computation has completed. It
// returns false if the computation cannot make progress yet, in which case it
// must first have arranged for cx.Waker().Wake() to be called once progress
// is possible. A completed future must not be polled again unless its
// documentation says otherwise; every [Handle] permits it.
//
// A future is only ever polled by one goroutine at a time, but successive
// polls may come from different goroutines.
type Future[T any] interface {
	Poll(cx *Context) (T, bool)
}

// A Context is passed to [Future.Poll] to identify the task doing the polling.
type Context struct {
	waker *Waker
}

// NewContext returns a context for polling futures outside of a [Scheduler],
// for instance from tests or from another executor. The waker may be nil, in
// which case pending futures have nobody to wake.
func NewContext(w *Waker) *Context {
	return &Context{waker: w}
}

// Waker returns the waker of the polling task, or nil if there is none.
func (cx *Context) Waker() *Waker {
	if cx == nil {
		return nil
	}
	return cx.waker
}

// A Waker reschedules a pending task. Wake may be called from any goroutine
// and any number of times; a burst of wakes before the next poll results in a
// single poll.
type Waker struct {
	wake func()
}

// NewWaker returns a waker that calls fn on every Wake.
func NewWaker(fn func()) *Waker {
	if fn == nil {
		panic("wake function must be non-nil")
	}
	return &Waker{wake: fn}
}

// Wake is a no-op on a nil waker.
func (w *Waker) Wake() {
	if w != nil {
		w.wake()
	}
}

// PollFunc adapts an ordinary function to the [Future] interface.
type PollFunc[T any] func(cx *Context) (T, bool)

func (f PollFunc[T]) Poll(cx *Context) (T, bool) {
	return f(cx)
}

// Ready returns a future that completes with v on its first poll.
func Ready[T any](v T) Future[T] {
	return PollFunc[T](func(*Context) (T, bool) {
		return v, true
	})
}

// Func returns a future that calls fn on its first poll and completes with its
// result. fn runs on a worker and must not block for long.
func Func[T any](fn func() T) Future[T] {
	if fn == nil {
		panic("future must be non-nil")
	}
	return PollFunc[T](func(*Context) (T, bool) {
		return fn(), true
	})
}

// Yield returns a future that is pending on its first poll, waking its task
// immediately, and completes on the second. Awaiting it lets other tasks run.
func Yield() Future[struct{}] {
	return &yieldFuture{}
}

type yieldFuture struct {
	yielded bool
}

func (y *yieldFuture) Poll(cx *Context) (struct{}, bool) {
	if y.yielded {
		return struct{}{}, true
	}
	y.yielded = true
	cx.Waker().Wake()
	return struct{}{}, false
}
