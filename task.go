// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"runtime/debug"
	"sync/atomic"

	"go.uber.org/zap"
)

// Task state bits. A task moves through scheduled, running, and back to
// scheduled any number of times before it is completed. The scheduled bit may
// be set while running, meaning that the task was woken during its poll and
// must be queued again once the poll returns.
const (
	stateScheduled uint32 = 1 << iota
	stateRunning
	stateCompleted
)

// taskBody erases the result type of a spawned future.
type taskBody interface {
	// poll advances the future and reports whether it completed, in which
	// case the handle has been resolved.
	poll(cx *Context) bool
	// abort resolves the handle with a panic unless it is already resolved.
	abort(err *PanicError)
}

type futureBody[T any] struct {
	future Future[T]
	handle *Handle[T]
}

func (b *futureBody[T]) poll(cx *Context) bool {
	v, ok := b.future.Poll(cx)
	if ok {
		b.handle.complete(&outcome[T]{value: v})
	}
	return ok
}

func (b *futureBody[T]) abort(err *PanicError) {
	if !b.handle.isComplete() {
		b.handle.complete(&outcome[T]{err: err})
	}
}

// A task is owned by whichever queue holds it, or by the worker running it.
type task struct {
	state atomic.Uint32
	sched *Scheduler
	cx    Context
	// Accessed only while the running bit is held. Nil once completed.
	body taskBody
}

func newTask(s *Scheduler, body taskBody) *task {
	t := &task{
		sched: s,
		body:  body,
	}
	t.cx.waker = NewWaker(t.schedule)
	return t
}

// schedule queues the task on the global queue unless it is already queued,
// running, or completed. A task that is running is only marked, and its
// runner queues it again after the current poll.
func (t *task) schedule() {
	for {
		old := t.state.Load()
		if old&(stateScheduled|stateCompleted) != 0 {
			return
		}
		if t.state.CompareAndSwap(old, old|stateScheduled) {
			if old&stateRunning == 0 {
				t.sched.inject(t)
			}
			return
		}
	}
}

// run polls the task once on behalf of w.
func (t *task) run(w *worker) {
	for {
		old := t.state.Load()
		if old != stateScheduled {
			panic("task run without being scheduled")
		}
		if t.state.CompareAndSwap(old, stateRunning) {
			break
		}
	}

	w.stats.polls.Add(1)
	if t.poll(w) {
		t.body = nil
		// Wakes that arrived during the final poll are discarded.
		t.state.Store(stateCompleted)
		w.stats.completions.Add(1)
		return
	}

	for {
		old := t.state.Load()
		if t.state.CompareAndSwap(old, old&^stateRunning) {
			if old&stateScheduled != 0 {
				t.sched.inject(t)
			}
			return
		}
	}
}

func (t *task) poll(w *worker) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			// A panic that was itself delivered through an awaited handle is
			// passed along as is.
			pe, ok := r.(*PanicError)
			if !ok {
				pe = &PanicError{Value: r, Stack: debug.Stack()}
			}
			w.stats.panics.Add(1)
			w.logger.Error("Task panicked",
				zap.Any("panic", pe.Value),
				zap.ByteString("stack", pe.Stack),
			)
			t.body.abort(pe)
			completed = true
		}
	}()
	return t.body.poll(&t.cx)
}
