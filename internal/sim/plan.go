// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"fmt"

	"pgregory.net/rapid"
)

type Plan struct {
	Roots     []*Task
	TaskCount int
}

// NewPlan creates a forest of simulated tasks for testing.
func NewPlan(t *rapid.T, config *Config) *Plan {
	p := &Plan{}
	p.Roots = make([]*Task, config.RootCount.Draw(t, "RootCount"))
	for i := range p.Roots {
		p.Roots[i] = p.newTask(t, config, 0)
	}
	t.Logf("plan: roots=%d tasks=%d", len(p.Roots), p.TaskCount)
	return p
}

func (p *Plan) newTask(t *rapid.T, config *Config, depth int) *Task {
	task := &Task{
		ID: p.TaskCount,
	}
	p.TaskCount++
	name := fmt.Sprintf("Task#%d", task.ID)

	task.Value = config.Value.Draw(t, name+".Value")
	task.Suspends = make([]Suspend, config.SuspendCount.Draw(t, name+".SuspendCount"))
	for i := range task.Suspends {
		sname := fmt.Sprintf("%s.Suspend#%d", name, i)
		if config.TimerProbability.Draw(t, sname+".Timer") {
			task.Suspends[i] = Suspend{
				Timer: true,
				Delay: config.TimerDelay.Draw(t, sname+".Delay"),
			}
		}
	}
	task.Panics = config.PanicProbability.Draw(t, name+".Panics")

	if depth < config.MaxDepth {
		task.Children = make([]*Task, config.ChildCount.Draw(t, name+".ChildCount"))
		for i := range task.Children {
			task.Children[i] = p.newTask(t, config, depth+1)
		}
	}
	return task
}

// Format implements fmt.Formatter for pretty-printing a plan.
func (p *Plan) Format(f fmt.State, verb rune) {
	if verb != 'v' {
		panic("unsupported verb")
	}
	fmt.Fprintf(f, "Plan(%d tasks)", p.TaskCount)
	if f.Flag('#') {
		for _, r := range p.Roots {
			fmt.Fprint(f, "\n")
			r.formatInternal(f, "")
		}
	}
}
