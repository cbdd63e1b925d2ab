// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package waitq_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petenewcomb/wsexec-go/internal/waitq"
	"github.com/stretchr/testify/require"
)

func notified(w *waitq.Waiter) bool {
	select {
	case <-w.Done():
		return true
	default:
		return false
	}
}

func TestNotifyEmptyQueue(t *testing.T) {
	chk := require.New(t)
	var q waitq.Queue
	q.Init()
	chk.False(q.Notify())
	chk.Equal(0, q.Len())
}

func TestNotifyInOrder(t *testing.T) {
	chk := require.New(t)
	var q waitq.Queue
	q.Init()

	w1 := q.Add()
	w2 := q.Add()
	chk.Equal(2, q.Len())

	chk.True(q.Notify())
	chk.True(notified(w1))
	chk.False(notified(w2))

	chk.True(q.Notify())
	chk.True(notified(w2))
	chk.False(q.Notify())
}

func TestNotifySkipsClosedWaiters(t *testing.T) {
	chk := require.New(t)
	var q waitq.Queue
	q.Init()

	w1 := q.Add()
	w2 := q.Add()
	w1.Close()

	chk.True(q.Notify())
	chk.True(notified(w2))
	chk.Equal(0, q.Len())
}

func TestCloseForwardsUnconsumedNotification(t *testing.T) {
	chk := require.New(t)
	var q waitq.Queue
	q.Init()

	w1 := q.Add()
	w2 := q.Add()

	// w1 is notified but closes without consuming the notification, which
	// must therefore reach w2.
	chk.True(q.Notify())
	w1.Close()
	chk.True(notified(w2))
}

func TestConcurrentParkAndNotify(t *testing.T) {
	chk := require.New(t)
	var q waitq.Queue
	q.Init()

	const parkers = 50
	var woken atomic.Int32
	var wg sync.WaitGroup
	wg.Add(parkers)
	for range parkers {
		go func() {
			defer wg.Done()
			w := q.Add()
			<-w.Done()
			woken.Add(1)
		}()
	}

	// Keep notifying until every parker has been woken. Notifications sent
	// before a parker registers are simply reported as undelivered.
	deadline := time.Now().Add(10 * time.Second)
	for woken.Load() < parkers && time.Now().Before(deadline) {
		q.Notify()
		time.Sleep(time.Microsecond)
	}
	wg.Wait()
	chk.Equal(int32(parkers), woken.Load())
}
