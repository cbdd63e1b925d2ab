// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"cmp"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/addrummond/heap"
	"github.com/petenewcomb/wsexec-go"
)

// Timer is a minimal stand-in for an external timer service. It wakes futures
// from its own goroutine, which is never a scheduler worker.
type Timer struct {
	mu     sync.Mutex
	events heap.Heap[timerEvent, heap.Min]
	seq    uint64
	kick   chan struct{}
	fired  atomic.Int64
}

type timerEvent struct {
	Deadline time.Time
	Seq      uint64
	Waker    *wsexec.Waker
	Fired    *atomic.Bool
}

func (a *timerEvent) Cmp(b *timerEvent) int {
	if c := a.Deadline.Compare(b.Deadline); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

// NewTimer starts a timer that runs until ctx is done.
func NewTimer(ctx context.Context) *Timer {
	tm := &Timer{
		kick: make(chan struct{}, 1),
	}
	go tm.run(ctx)
	return tm
}

// Fired returns the number of wakes the timer has delivered.
func (tm *Timer) Fired() int64 {
	return tm.fired.Load()
}

// Sleep returns a future that stays pending until d has elapsed after its
// first poll.
func (tm *Timer) Sleep(d time.Duration) wsexec.Future[struct{}] {
	return &sleepFuture{timer: tm, delay: d}
}

type sleepFuture struct {
	timer      *Timer
	delay      time.Duration
	registered bool
	fired      atomic.Bool
}

func (f *sleepFuture) Poll(cx *wsexec.Context) (struct{}, bool) {
	if f.fired.Load() {
		return struct{}{}, true
	}
	if !f.registered {
		f.registered = true
		f.timer.add(time.Now().Add(f.delay), cx.Waker(), &f.fired)
	}
	return struct{}{}, false
}

func (tm *Timer) add(deadline time.Time, w *wsexec.Waker, fired *atomic.Bool) {
	tm.mu.Lock()
	tm.seq++
	heap.PushOrderable(&tm.events, timerEvent{
		Deadline: deadline,
		Seq:      tm.seq,
		Waker:    w,
		Fired:    fired,
	})
	tm.mu.Unlock()
	select {
	case tm.kick <- struct{}{}:
	default:
	}
}

func (tm *Timer) run(ctx context.Context) {
	for {
		var wait <-chan time.Time
		tm.mu.Lock()
		for {
			ev, ok := heap.Peek(&tm.events)
			if !ok {
				break
			}
			if d := time.Until(ev.Deadline); d > 0 {
				wait = time.After(d)
				break
			}
			_, _ = heap.PopOrderable(&tm.events)
			ev.Fired.Store(true)
			tm.fired.Add(1)
			ev.Waker.Wake()
		}
		tm.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-tm.kick:
		case <-wait:
		}
	}
}
