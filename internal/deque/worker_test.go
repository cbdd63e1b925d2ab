// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package deque_test

import (
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	gdeque "github.com/gammazero/deque"
	"github.com/petenewcomb/wsexec-go/internal/deque"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func ptr(v int) *int {
	return &v
}

func TestWorkerBasicFunctionality(t *testing.T) {
	for _, order := range []deque.Order{deque.FIFO, deque.LIFO} {
		t.Run(order.String(), func(t *testing.T) {
			chk := require.New(t)
			w := deque.NewWorker[int](order)
			s := w.Stealer()
			chk.Equal(order, w.Order())

			chk.Nil(w.Pop())
			chk.True(s.Steal().IsEmpty())
			chk.True(s.IsEmpty())

			w.Push(ptr(1))
			w.Push(ptr(2))
			w.Push(ptr(3))
			chk.Equal(3, w.Len())
			chk.False(s.IsEmpty())

			// Stealers always take the oldest value.
			st := s.Steal()
			chk.True(st.IsSuccess())
			chk.Equal(1, *st.Success())

			if order == deque.FIFO {
				chk.Equal(2, *w.Pop())
				chk.Equal(3, *w.Pop())
			} else {
				chk.Equal(3, *w.Pop())
				chk.Equal(2, *w.Pop())
			}
			chk.Nil(w.Pop())
			chk.Equal(0, w.Len())
		})
	}
}

func TestWorkerInvalidOrderPanics(t *testing.T) {
	chk := require.New(t)
	chk.PanicsWithValue("invalid worker order", func() {
		_ = deque.NewWorker[int](deque.Order(7))
	})
}

func TestWorkerNilPushPanics(t *testing.T) {
	chk := require.New(t)
	w := deque.NewWorker[int](deque.FIFO)
	chk.PanicsWithValue("nil value pushed to worker", func() {
		w.Push(nil)
	})
}

func TestWorkerGrowth(t *testing.T) {
	chk := require.New(t)
	w := deque.NewWorker[int](deque.FIFO)
	s := w.Stealer()

	// Enough to force several doublings of the initial buffer, with steals
	// interleaved so that the live range wraps around the ring.
	const count = 1000
	next := 0
	for i := range count {
		w.Push(ptr(i))
		if i%3 == 0 {
			st := s.Steal()
			chk.True(st.IsSuccess())
			chk.Equal(next, *st.Success())
			next++
		}
	}
	for v := w.Pop(); v != nil; v = w.Pop() {
		chk.Equal(next, *v)
		next++
	}
	chk.Equal(count, next)
}

// TestWorkerWithRapid checks a Worker and its Stealer against a reference
// deque, for both pop orders.
func TestWorkerWithRapid(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		order := rapid.SampledFrom([]deque.Order{deque.FIFO, deque.LIFO}).Draw(t, "order")
		w := deque.NewWorker[int](order)
		s := w.Stealer()

		var model gdeque.Deque[int]

		t.Repeat(map[string]func(*rapid.T){
			"push": func(t *rapid.T) {
				// Bursts of pushes exercise buffer growth.
				n := rapid.IntRange(1, 100).Draw(t, "count")
				for range n {
					v := rapid.Int().Draw(t, "value")
					w.Push(ptr(v))
					model.PushBack(v)
				}
			},
			"pop": func(t *rapid.T) {
				v := w.Pop()
				if model.Len() == 0 {
					require.Nil(t, v)
					return
				}
				var expected int
				if order == deque.FIFO {
					expected = model.PopFront()
				} else {
					expected = model.PopBack()
				}
				require.NotNil(t, v)
				require.Equal(t, expected, *v)
			},
			"steal": func(t *rapid.T) {
				st := s.Steal()
				require.False(t, st.IsRetry(), "uncontended steal asked for a retry")
				if model.Len() == 0 {
					require.True(t, st.IsEmpty())
					return
				}
				require.True(t, st.IsSuccess())
				require.Equal(t, model.PopFront(), *st.Success())
			},
			"": func(t *rapid.T) {
				require.Equal(t, model.Len(), w.Len())
				require.Equal(t, model.Len() == 0, s.IsEmpty())
			},
		})
	})
}

func TestWorkerConcurrentSteal(t *testing.T) {
	for _, order := range []deque.Order{deque.FIFO, deque.LIFO} {
		t.Run(order.String(), func(t *testing.T) {
			testWorkerConcurrentSteal(t, order)
		})
	}
}

func testWorkerConcurrentSteal(t *testing.T, order deque.Order) {
	chk := require.New(t)
	w := deque.NewWorker[int](order)

	numStealers := max(1, runtime.NumCPU()-1)
	iterations := 200_000
	if testing.Short() {
		iterations /= 5
	}

	received := make([]atomic.Int32, iterations)
	var stolen, popped, retries atomic.Int64
	var ownerDone atomic.Bool

	var wg, ready sync.WaitGroup
	wg.Add(numStealers)
	ready.Add(numStealers + 1)
	startCh := make(chan struct{})
	startTime := time.Now()

	for range numStealers {
		s := w.Stealer()
		go func() {
			defer wg.Done()
			ready.Done()
			<-startCh
			for {
				st := s.Steal()
				switch {
				case st.IsSuccess():
					received[*st.Success()].Add(1)
					stolen.Add(1)
				case st.IsRetry():
					retries.Add(1)
				case ownerDone.Load():
					return
				default:
					runtime.Gosched()
				}
			}
		}()
	}

	ready.Done()
	ready.Wait()
	close(startCh)

	// The owner pushes everything but also pops as it goes, keeping the deque
	// short so that it frequently races stealers for the last value.
	for i := range iterations {
		w.Push(ptr(i))
		if i%2 == 1 {
			if v := w.Pop(); v != nil {
				received[*v].Add(1)
				popped.Add(1)
			}
		}
	}
	for v := w.Pop(); v != nil; v = w.Pop() {
		received[*v].Add(1)
		popped.Add(1)
	}
	ownerDone.Store(true)
	wg.Wait()

	t.Logf("%s: %d popped by owner, %d stolen by %d stealers, %d retries, %v",
		order, popped.Load(), stolen.Load(), numStealers, retries.Load(), time.Since(startTime))

	chk.Equal(int64(iterations), popped.Load()+stolen.Load())
	for i := range received {
		count := received[i].Load()
		chk.Equal(int32(1), count, "value %d received %d times, expected 1", i, count)
	}
}
