// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec_test

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"testing"
	"time"

	"github.com/petenewcomb/wsexec-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const benchTasksPerOp = 1000

type benchShape struct {
	name string
	run  func(ctx context.Context, b *testing.B, s *wsexec.Scheduler)
}

var benchShapes = []benchShape{
	{"flat", benchFlat},
	{"fanout", benchFanout},
	{"yield", benchYield},
}

// Every task is spawned from outside the scheduler.
func benchFlat(ctx context.Context, b *testing.B, s *wsexec.Scheduler) {
	handles := make([]*wsexec.Handle[int], benchTasksPerOp)
	for i := range handles {
		handles[i] = wsexec.SpawnOn(s, wsexec.Ready(i))
	}
	for _, h := range handles {
		if _, err := h.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

// A single root spawns every other task from a worker and awaits them all.
func benchFanout(ctx context.Context, b *testing.B, s *wsexec.Scheduler) {
	root := wsexec.SpawnOn(s, wsexec.Async(func(aw *wsexec.Awaiter) int {
		children := make([]*wsexec.Handle[int], benchTasksPerOp-1)
		for i := range children {
			children[i] = wsexec.SpawnOn(s, wsexec.Ready(i))
		}
		sum := 0
		for _, h := range children {
			sum += wsexec.Await(aw, h)
		}
		return sum
	}))
	if _, err := root.Wait(ctx); err != nil {
		b.Fatal(err)
	}
}

// Every task suspends a few times before completing.
func benchYield(ctx context.Context, b *testing.B, s *wsexec.Scheduler) {
	handles := make([]*wsexec.Handle[int], benchTasksPerOp)
	for i := range handles {
		handles[i] = wsexec.SpawnOn(s, wsexec.Async(func(aw *wsexec.Awaiter) int {
			for range 3 {
				wsexec.Await(aw, wsexec.Yield())
			}
			return i
		}))
	}
	for _, h := range handles {
		if _, err := h.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func benchWorkerCounts() []int {
	counts := []int{1, 2, 4, runtime.NumCPU()}
	slices.Sort(counts)
	return slices.Compact(counts)
}

// Output of this benchmark is consumed by internal/cmd/chartgen, which keys on
// the shape, order, and workers name components and the tasks/op metric.
func BenchmarkThroughput(b *testing.B) {
	ctx := context.Background()
	for _, workers := range benchWorkerCounts() {
		for _, order := range []wsexec.QueueOrder{wsexec.FIFO, wsexec.LIFO} {
			// Schedulers are never shut down, so build one per configuration
			// rather than one per invocation of each sub-benchmark.
			s := wsexec.NewScheduler(&wsexec.Config{
				Workers:    workers,
				LocalQueue: order,
				Logger:     zap.NewNop(),
			})
			for _, shape := range benchShapes {
				name := fmt.Sprintf("shape=%s/order=%v/workers=%d", shape.name, order, workers)
				b.Run(name, func(b *testing.B) {
					b.ReportAllocs()
					start := time.Now()
					for b.Loop() {
						shape.run(ctx, b, s)
					}
					elapsed := time.Since(start)
					b.ReportMetric(benchTasksPerOp, "tasks/op")
					b.ReportMetric(float64(b.N*benchTasksPerOp)/elapsed.Seconds(), "completed/s")
				})
			}
		}
	}
}

func BenchmarkSpawnWait(b *testing.B) {
	chk := require.New(b)
	ctx := context.Background()
	s := wsexec.NewScheduler(&wsexec.Config{Logger: zap.NewNop()})
	b.ReportAllocs()
	for b.Loop() {
		v, err := wsexec.SpawnOn(s, wsexec.Ready(1)).Wait(ctx)
		chk.NoError(err)
		chk.Equal(1, v)
	}
}
