// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"fmt"
	"time"
)

// Task represents a simulated task and its descendants.
type Task struct {
	ID       int
	Value    int
	Suspends []Suspend
	Children []*Task
	Panics   bool
}

// Suspend describes one point at which a task is pending. A zero Delay
// yields, all others sleep on the fake timer.
type Suspend struct {
	Delay time.Duration
	Timer bool
}

// Expected returns the result that the task should produce, or false if it
// should fail with a panic, either its own or one of its children's.
func (t *Task) Expected() (int, bool) {
	sum := t.Value
	ok := !t.Panics
	for _, c := range t.Children {
		v, cok := c.Expected()
		sum += v
		ok = ok && cok
	}
	return sum, ok
}

// Format implements fmt.Formatter for pretty-printing a task hierarchy.
func (t *Task) Format(f fmt.State, verb rune) {
	if verb != 'v' {
		panic("unsupported verb")
	}
	if f.Flag('#') {
		t.formatInternal(f, "")
	} else {
		fmt.Fprintf(f, "Task#%d", t.ID)
	}
}

func (t *Task) formatInternal(f fmt.State, indent string) {
	fmt.Fprintf(f, "Task#%d: value=%d panics=%v", t.ID, t.Value, t.Panics)
	for _, s := range t.Suspends {
		if s.Timer {
			fmt.Fprintf(f, "\n%s  sleep %v", indent, s.Delay)
		} else {
			fmt.Fprintf(f, "\n%s  yield", indent)
		}
	}
	for _, c := range t.Children {
		fmt.Fprintf(f, "\n%s  ", indent)
		c.formatInternal(f, indent+"  ")
	}
}
