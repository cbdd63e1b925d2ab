// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package state holds small shared-state primitives used by the scheduler.
package state

import (
	"sync/atomic"
)

// BoundedCounter is a thread-safe counter that can be incremented
// conditionally against a limit. The zero value is ready to use.
type BoundedCounter struct {
	v atomic.Int64
}

func (c *BoundedCounter) Increment() {
	c.v.Add(1)
}

// IncrementIfUnder increments the counter only if its value is below limit,
// returning whether it did so.
func (c *BoundedCounter) IncrementIfUnder(limit int) bool {
	// Tentatively increment the counter and check against limit. If over limit,
	// remove the tentative increment and try again if we notice that another
	// goroutine has made room between the increment and decrement.
	for c.v.Add(1) > int64(limit) {
		if c.v.Add(-1) >= int64(limit) {
			return false
		}
	}
	return true
}

// Decrement returns true if the counter reached zero.
func (c *BoundedCounter) Decrement() bool {
	newValue := c.v.Add(-1)
	if newValue < 0 {
		panic("counter decremented below zero")
	}
	return newValue == 0
}

func (c *BoundedCounter) IsZero() bool {
	return c.v.Load() == 0
}

func (c *BoundedCounter) Load() int64 {
	return c.v.Load()
}
