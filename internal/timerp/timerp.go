// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package timerp pools timers for goroutines that repeatedly park with a
// timeout.
//
// This implementation relies on [Go 1.23+ behavior]: Reset and Stop discard
// any stale value left in the channel, so a pooled timer never delivers a
// fire from a previous use.
//
// [Go 1.23+ behavior]: https://pkg.go.dev/time#NewTimer
package timerp

import (
	"sync"
	"time"
)

var pool = sync.Pool{
	New: func() any {
		t := time.NewTimer(time.Hour)
		t.Stop()
		return t
	},
}

// Get returns a timer that fires once after d.
func Get(d time.Duration) *time.Timer {
	t := pool.Get().(*time.Timer)
	t.Reset(d)
	return t
}

// Put stops t and returns it to the pool. The caller must not use t again.
func Put(t *time.Timer) {
	t.Stop()
	pool.Put(t)
}
