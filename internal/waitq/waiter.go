// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package waitq

// A Waiter moves through the following states:
//
// 1. [Queue.Add] returns a waiter with an empty notification channel of buffer
// length one that has been added to the queue.
//
// 2a. [Queue.Notify] retrieves the waiter from the queue and sends a message,
// filling the buffer. The owner either receives it from [Waiter.Done], which
// is an end state, or calls [Waiter.Close] without receiving it, in which case
// Close cannot fill the already-full buffer and forwards the notification to
// the next waiter in the queue.
//
// 2b. [Waiter.Close] is called while the waiter is still in the queue. Close
// fills the buffer, so that when Notify eventually retrieves the waiter it
// sees a full buffer and moves on to the next one.
//
// A waiter must not be used after it has received from Done or been closed.
type Waiter struct {
	q          *Queue
	notifyChan chan struct{}
}

// Done returns a channel that receives a value when the waiter is notified.
func (w *Waiter) Done() <-chan struct{} {
	return w.notifyChan
}

// Close withdraws a waiter that is no longer listening, passing on any
// notification it received but did not consume.
func (w *Waiter) Close() {
	select {
	case w.notifyChan <- struct{}{}:
	default:
		w.q.Notify()
	}
}
