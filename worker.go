// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"runtime"
	"time"

	"github.com/petenewcomb/wsexec-go/internal/deque"
	"github.com/petenewcomb/wsexec-go/internal/timerp"
	"github.com/petenewcomb/wsexec-go/internal/waitq"
	"go.uber.org/zap"
)

type worker struct {
	id     int
	sched  *Scheduler
	local  *deque.Worker[task]
	peers  []*deque.Stealer[task]
	logger *zap.Logger
	stats  workerStats

	// Non-nil while registered on the scheduler's idle queue. A worker stays
	// registered across park timeouts and withdraws once it finds work.
	waiter *waitq.Waiter
}

func (w *worker) run() {
	if w.sched.config.LockOSThread {
		runtime.LockOSThread()
	}
	w.logger.Debug("Starting worker",
		zap.Int("worker", w.id),
		zap.Stringer("localQueue", w.local.Order()),
	)
	for {
		t := w.findTask()
		if t == nil {
			t = w.waitForTask()
		}
		t.run(w)
	}
}

// findTask returns the next task for w to run, or nil if every queue
// available to w was observed to be empty.
func (w *worker) findTask() *task {
	if t := w.local.Pop(); t != nil {
		return t
	}
	s := w.sched
	for {
		fromPeer := false
		st := s.injector.StealBatchAndPop(w.local, s.config.BatchLimit).OrElse(func() deque.Steal[task] {
			fromPeer = true
			return deque.StealFirst(w.peers)
		})
		switch {
		case st.IsSuccess():
			if fromPeer {
				w.stats.peerSteals.Add(1)
			} else {
				w.stats.globalSteals.Add(1)
				if w.local.Len() > 0 {
					// Let another worker help with the batch.
					s.notifyIdle()
				}
			}
			return st.Success()
		case st.IsRetry():
			w.stats.retries.Add(1)
		default:
			return nil
		}
	}
}

// waitForTask spins and then parks until it finds a task.
func (w *worker) waitForTask() *task {
	for {
		t := w.spin()
		if t == nil {
			t = w.park()
		}
		if t != nil {
			if w.waiter != nil {
				w.waiter.Close()
				w.waiter = nil
			}
			return t
		}
	}
}

func (w *worker) spin() *task {
	s := w.sched
	if !s.spinning.IncrementIfUnder(max(1, len(s.workers)/2)) {
		return nil
	}
	for range s.config.SpinRounds {
		runtime.Gosched()
		if t := w.findTask(); t != nil {
			s.spinning.Decrement()
			// Pushes made while w was spinning notified nobody.
			if w.local.Len() > 0 || !s.injector.IsEmpty() {
				s.notifyIdle()
			}
			return t
		}
	}
	s.spinning.Decrement()
	return nil
}

// park sleeps until w is notified or the park timeout elapses. It returns a
// task only if one appeared while w was registering itself.
func (w *worker) park() *task {
	s := w.sched
	if w.waiter == nil {
		w.waiter = s.idle.Add()
	}
	// A task pushed before registration may not have notified anyone.
	if t := w.findTask(); t != nil {
		return t
	}

	w.stats.parks.Add(1)
	var timeout <-chan time.Time
	if s.config.ParkTimeout > 0 {
		timer := timerp.Get(s.config.ParkTimeout)
		defer timerp.Put(timer)
		timeout = timer.C
	}
	select {
	case <-w.waiter.Done():
		w.waiter = nil
	case <-timeout:
	}
	return nil
}
