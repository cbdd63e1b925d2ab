// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsexec

import (
	"time"

	"github.com/petenewcomb/wsexec-go"
	"go.uber.org/zap"
)

// LoggedFuture adds structured logging to a future. It logs the first poll
// and the completion of f, including the number of polls, the elapsed time,
// and any panic.
func LoggedFuture[T any](operationName string, f wsexec.Future[T]) wsexec.Future[T] {
	return observe(f, &logObserver{name: operationName})
}

type logObserver struct {
	name      string
	logger    *zap.Logger
	startTime time.Time
}

func (o *logObserver) start(id string) {
	// This implementation uses the global zap logger as of the first poll.
	o.logger = zap.L().With(
		zap.String("operation", o.name),
		zap.String("component", component),
		zap.String(InvocationIDKey, id),
	)
	o.logger.Debug("Starting future")
	o.startTime = time.Now()
}

func (o *logObserver) suspend(int) {}

func (o *logObserver) finish(polls int, err error) {
	duration := time.Since(o.startTime)
	if err != nil {
		o.logger.Error("Future panicked",
			zap.Int("polls", polls),
			zap.Duration("duration", duration),
			zap.Error(err))
	} else {
		o.logger.Debug("Future completed",
			zap.Int("polls", polls),
			zap.Duration("duration", duration))
	}
}
