// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package otwsexec provides OpenTelemetry and structured-logging
// instrumentation for wsexec futures. Each wrapper observes one invocation of
// a future, from its first poll to its completion, and tags everything it
// records with a unique invocation ID.
package otwsexec

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/petenewcomb/wsexec-go"
)

const component = "otwsexec"

// InvocationIDKey is the attribute key under which the invocation ID is
// recorded on spans, metrics, and log entries.
const InvocationIDKey = "wsexec.invocation_id"

// An observer follows the lifecycle of one invocation of a wrapped future.
type observer interface {
	start(id string)
	suspend(polls int)
	// finish is called once, with a non-nil err if the future panicked.
	finish(polls int, err error)
}

type observedFuture[T any] struct {
	inner     wsexec.Future[T]
	observers []observer
	id        string
	polls     int
	started   bool
}

func observe[T any](f wsexec.Future[T], observers ...observer) *observedFuture[T] {
	if f == nil {
		panic("future must be non-nil")
	}
	return &observedFuture[T]{
		inner:     f,
		observers: observers,
	}
}

func (o *observedFuture[T]) Poll(cx *wsexec.Context) (v T, ok bool) {
	if !o.started {
		o.started = true
		o.id = uuid.NewString()
		for _, obs := range o.observers {
			obs.start(o.id)
		}
	}
	o.polls++

	panicking := true
	defer func() {
		if panicking {
			r := recover()
			err := panicError(r)
			for i := len(o.observers) - 1; i >= 0; i-- {
				o.observers[i].finish(o.polls, err)
			}
			panic(r)
		}
	}()
	v, ok = o.inner.Poll(cx)
	panicking = false

	if ok {
		for i := len(o.observers) - 1; i >= 0; i-- {
			o.observers[i].finish(o.polls, nil)
		}
	} else {
		for _, obs := range o.observers {
			obs.suspend(o.polls)
		}
	}
	return v, ok
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%w: %v", wsexec.ErrTaskPanic, r)
}
