// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"sync"
	"sync/atomic"

	"github.com/petenewcomb/wsexec-go/internal/deque"
	"github.com/petenewcomb/wsexec-go/internal/state"
	"github.com/petenewcomb/wsexec-go/internal/waitq"
)

// A Scheduler runs spawned futures on a fixed pool of worker goroutines. Its
// workers start in [NewScheduler] and run for the remainder of the process.
type Scheduler struct {
	config   Config
	injector *deque.Injector[task]
	workers  []*worker
	idle     waitq.Queue
	spinning state.BoundedCounter
	spawned  atomic.Int64
}

// NewScheduler creates a scheduler and starts its workers. A nil config is
// equivalent to a pointer to [DefaultConfig]. NewScheduler panics if the
// config contains a negative count or an invalid queue order.
//
// Most programs should share the scheduler returned by [Default].
func NewScheduler(config *Config) *Scheduler {
	s := newScheduler(config)
	s.registerMetrics()
	for _, w := range s.workers {
		go w.run()
	}
	return s
}

// newScheduler builds a scheduler without starting its workers.
func newScheduler(config *Config) *Scheduler {
	if config == nil {
		config = &DefaultConfig
	}
	s := &Scheduler{
		config:   config.resolve(),
		injector: deque.NewInjector[task](),
	}
	s.idle.Init()

	n := s.config.Workers
	locals := make([]*deque.Worker[task], n)
	stealers := make([]*deque.Stealer[task], n)
	for i := range n {
		locals[i] = deque.NewWorker[task](s.config.LocalQueue)
		stealers[i] = locals[i].Stealer()
	}

	s.workers = make([]*worker, n)
	for i := range n {
		// Peers are visited starting just after the worker itself, so that
		// no two workers begin their search at the same victim.
		peers := make([]*deque.Stealer[task], 0, n-1)
		for j := 1; j < n; j++ {
			peers = append(peers, stealers[(i+j)%n])
		}
		s.workers[i] = &worker{
			id:     i,
			sched:  s,
			local:  locals[i],
			peers:  peers,
			logger: s.config.Logger,
		}
	}
	return s
}

var defaultScheduler = sync.OnceValue(func() *Scheduler {
	return NewScheduler(nil)
})

// Default returns the process-wide scheduler, creating it with
// [DefaultConfig] on first use.
func Default() *Scheduler {
	return defaultScheduler()
}

// Workers returns the number of worker goroutines.
func (s *Scheduler) Workers() int {
	return len(s.workers)
}

// inject places a task on the global queue and makes sure that some worker
// will look for it.
func (s *Scheduler) inject(t *task) {
	s.injector.Push(t)
	s.notifyIdle()
}

// notifyIdle wakes a parked worker unless one is already spinning, since a
// spinning worker is bound to search the queues again before it parks.
func (s *Scheduler) notifyIdle() {
	if s.spinning.IsZero() {
		s.idle.Notify()
	}
}

// SpawnOn submits f to run on s and returns its completion handle. SpawnOn
// never blocks, and f is first polled by one of the workers of s.
func SpawnOn[T any](s *Scheduler, f Future[T]) *Handle[T] {
	if s == nil {
		panic("scheduler must be non-nil")
	}
	if f == nil {
		panic("future must be non-nil")
	}
	h := newHandle[T]()
	t := newTask(s, &futureBody[T]{future: f, handle: h})
	s.spawned.Add(1)
	t.schedule()
	return h
}

// Spawn submits f to run on the [Default] scheduler.
func Spawn[T any](f Future[T]) *Handle[T] {
	return SpawnOn(Default(), f)
}

// Go runs fn as a task on the [Default] scheduler. fn runs on a worker and
// must not block for long.
func Go[T any](fn func() T) *Handle[T] {
	if fn == nil {
		panic("future must be non-nil")
	}
	return Spawn(Func(fn))
}
