// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petenewcomb/wsexec-go"
	"github.com/stretchr/testify/require"
)

// Result summarizes a simulation run.
type Result struct {
	Duration time.Duration
	Polls    int64
}

// Run executes plan on s and checks that every task started and finished
// exactly once and that every root resolved to its expected outcome.
func Run(t require.TestingT, ctx context.Context, s *wsexec.Scheduler, timer *Timer, plan *Plan, debug bool) *Result {
	c := &controller{
		Plan:     plan,
		Sched:    s,
		Timer:    timer,
		Starts:   make([]atomic.Int32, plan.TaskCount),
		Finishes: make([]atomic.Int32, plan.TaskCount),
		Debug:    debug,
	}
	return c.Run(t, ctx)
}

type controller struct {
	Plan      *Plan
	Sched     *wsexec.Scheduler
	Timer     *Timer
	Starts    []atomic.Int32
	Finishes  []atomic.Int32
	Polls     atomic.Int64
	StartTime time.Time
	Debug     bool

	// Every handle spawned, so that the run can wait for descendants of
	// panicking tasks that nobody awaits.
	HandlesMutex sync.Mutex
	Handles      []*wsexec.Handle[int]
}

func (c *controller) Run(t require.TestingT, ctx context.Context) *Result {
	chk := require.New(t)
	c.StartTime = time.Now()
	c.debugf("%v starting %v", time.Since(c.StartTime), c.Plan)

	roots := make([]*wsexec.Handle[int], len(c.Plan.Roots))
	for i, task := range c.Plan.Roots {
		roots[i] = c.spawn(task)
	}

	for i, task := range c.Plan.Roots {
		v, err := roots[i].Wait(ctx)
		expected, ok := task.Expected()
		if ok {
			chk.NoError(err, "%v", task)
			chk.Equal(expected, v, "%v", task)
		} else {
			chk.ErrorIs(err, wsexec.ErrTaskPanic, "%v", task)
			var pe *wsexec.PanicError
			chk.True(errors.As(err, &pe))
			chk.IsType(simulatedPanic{}, pe.Value)
		}
	}

	// A task spawns all of its children before completing, so once every
	// known handle is done there are either no more tasks or new handles.
	for waited := 0; waited < c.Plan.TaskCount; {
		c.HandlesMutex.Lock()
		handles := c.Handles[waited:]
		c.HandlesMutex.Unlock()
		chk.NotEmpty(handles, "%d of %d tasks spawned", waited, c.Plan.TaskCount)
		for _, h := range handles {
			select {
			case <-h.Done():
			case <-ctx.Done():
				chk.FailNow("timed out waiting for descendants", "%v", ctx.Err())
			}
		}
		waited += len(handles)
	}

	for id := range c.Starts {
		chk.Equal(int32(1), c.Starts[id].Load(), "Task#%d started %d times", id, c.Starts[id].Load())
		chk.LessOrEqual(c.Finishes[id].Load(), int32(1), "Task#%d finished more than once", id)
	}

	res := &Result{
		Duration: time.Since(c.StartTime),
		Polls:    c.Polls.Load(),
	}
	c.debugf("%v ended %v after %d body polls", res.Duration, c.Plan, res.Polls)
	return res
}

// simulatedPanic is the value thrown by tasks planned to panic.
type simulatedPanic struct {
	Task int
}

func (c *controller) spawn(task *Task) *wsexec.Handle[int] {
	body := wsexec.Async(func(aw *wsexec.Awaiter) int {
		c.Starts[task.ID].Add(1)
		c.debugf("%v starting %v", time.Since(c.StartTime), task)

		for _, s := range task.Suspends {
			if s.Timer {
				wsexec.Await(aw, c.Timer.Sleep(s.Delay))
			} else {
				wsexec.Await(aw, wsexec.Yield())
			}
		}

		children := make([]*wsexec.Handle[int], len(task.Children))
		for i, child := range task.Children {
			children[i] = c.spawn(child)
		}
		sum := task.Value
		for _, h := range children {
			sum += wsexec.Await(aw, h)
		}

		if task.Panics {
			c.debugf("%v panicking %v", time.Since(c.StartTime), task)
			panic(simulatedPanic{Task: task.ID})
		}
		c.Finishes[task.ID].Add(1)
		c.debugf("%v ended %v", time.Since(c.StartTime), task)
		return sum
	})

	h := wsexec.SpawnOn(c.Sched, countPolls(body, &c.Polls))
	c.HandlesMutex.Lock()
	c.Handles = append(c.Handles, h)
	c.HandlesMutex.Unlock()
	return h
}

func countPolls[T any](f wsexec.Future[T], polls *atomic.Int64) wsexec.Future[T] {
	return wsexec.PollFunc[T](func(cx *wsexec.Context) (T, bool) {
		polls.Add(1)
		return f.Poll(cx)
	})
}

func (c *controller) debugf(format string, args ...interface{}) {
	if c.Debug {
		fmt.Printf(format+"\n", args...)
	}
}
