// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsexec

import (
	"context"

	"github.com/petenewcomb/wsexec-go"
)

// InstrumentedFuture combines tracing, metrics, and logging for a future into
// a single wrapper that records the same invocation ID everywhere.
func InstrumentedFuture[T any](
	ctx context.Context,
	operationName string,
	f wsexec.Future[T],
) wsexec.Future[T] {
	return observe(f,
		&spanObserver{ctx: ctx, name: operationName},
		&metricsObserver{name: operationName},
		&logObserver{name: operationName},
	)
}

// Spawn is a convenience function that instruments f and spawns it on s, or
// on the default scheduler if s is nil.
//
// Example:
//
//	h := otwsexec.Spawn(ctx, nil, "load-data", loadData)
//	data, err := h.Wait(ctx)
func Spawn[T any](
	ctx context.Context,
	s *wsexec.Scheduler,
	operationName string,
	f wsexec.Future[T],
) *wsexec.Handle[T] {
	if s == nil {
		s = wsexec.Default()
	}
	return wsexec.SpawnOn(s, InstrumentedFuture(ctx, operationName, f))
}
