// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package waitq provides a lock-free queue of parked goroutines, each of which
// is woken by at most one notification.
package waitq

import "github.com/petenewcomb/wsexec-go/internal/nbcq"

// Queue must be initialized with [Queue.Init] before use.
type Queue struct {
	inner nbcq.Queue[Waiter]
}

func (q *Queue) Init() {
	q.inner.Init()
}

// Add registers a new waiter at the back of the queue. It never blocks.
func (q *Queue) Add() *Waiter {
	w := &Waiter{
		q:          q,
		notifyChan: make(chan struct{}, 1),
	}
	q.inner.PushBack(w)
	return w
}

// Notify signals the waiter at the front of the queue, skipping any that have
// been closed. Returns false if no open waiter was found.
func (q *Queue) Notify() bool {
	for {
		w, ok := q.inner.PopFront()
		if !ok {
			return false
		}
		select {
		case w.notifyChan <- struct{}{}:
			return true
		default:
			// The buffer was full, meaning that the waiter was closed. Try the
			// next one.
		}
	}
}

// Len returns an approximation of the number of registered waiters, including
// closed ones that have not yet been skipped by [Queue.Notify].
func (q *Queue) Len() int {
	return q.inner.Len()
}
