// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package wsexec provides a work-stealing executor for short-lived
// asynchronous computations. A computation is expressed as a [Future], which
// the executor polls until it completes. A future that cannot make progress
// reports that it is pending after arranging for the [Waker] of the polling
// [Context] to be called, at which point the executor will poll it again,
// possibly on a different worker.
//
// Each [Scheduler] runs a fixed pool of worker goroutines. Every worker owns a
// local queue and prefers it, consulting the scheduler's shared global queue
// and then the local queues of its peers only when it runs out of work.
// Contention between workers is resolved with atomic operations alone: a
// worker that loses a race simply tries again.
//
// Most programs use the process-wide scheduler returned by [Default], through
// [Spawn] and [Go]:
//
//	h := wsexec.Go(func() int { return 6 * 7 })
//	v, err := h.Wait(ctx)
//
// Computations that need to wait on other futures partway through are easiest
// to write with [Async] and [Await], which let a function body suspend at each
// Await without blocking the worker that runs it:
//
//	h := wsexec.Spawn(wsexec.Async(func(aw *wsexec.Awaiter) int {
//		a := wsexec.Await(aw, wsexec.Go(func() int { return 6 }))
//		b := wsexec.Await(aw, wsexec.Go(func() int { return 7 }))
//		return a * b
//	}))
//
// Schedulers have no shutdown. Their workers live for the remainder of the
// process, parking when there is nothing to do.
package wsexec

//go:generate go run -C internal/cmd/chartgen . ../../../bench.txt
