// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec_test

import (
	"context"
	"testing"
	"time"

	"github.com/petenewcomb/wsexec-go"
	"github.com/petenewcomb/wsexec-go/internal/sim"
	"github.com/stretchr/testify/require"
)

// TestTimerWakesSleepingTasks suspends many tasks on a timer goroutine that
// is not a worker, with parking timeouts disabled so that only the timer's
// wakes can make progress.
func TestTimerWakesSleepingTasks(t *testing.T) {
	chk := require.New(t)
	ctx := testContext(t)
	timerCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := sim.NewTimer(timerCtx)
	s := newTestScheduler(t, wsexec.Config{ParkTimeout: -1})

	const count = 200
	start := time.Now()
	handles := make([]*wsexec.Handle[time.Duration], count)
	for i := range count {
		delay := time.Duration(i%10) * time.Millisecond
		handles[i] = wsexec.SpawnOn(s, wsexec.Async(func(aw *wsexec.Awaiter) time.Duration {
			wsexec.Await(aw, timer.Sleep(delay))
			wsexec.Await(aw, timer.Sleep(delay))
			return delay
		}))
	}
	for _, h := range handles {
		delay, err := h.Wait(ctx)
		chk.NoError(err)
		chk.GreaterOrEqual(time.Since(start), 2*delay)
	}
	chk.Equal(int64(2*count), timer.Fired())
}
