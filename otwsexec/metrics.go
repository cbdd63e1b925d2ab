// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package otwsexec

import (
	"context"
	"time"

	"github.com/petenewcomb/wsexec-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// MetricsFuture adds metrics collection to a future. It records the count of
// invocations, the number of polls each took, the time from first poll to
// completion, and the count of panics, under instrument names prefixed with
// metricName.
func MetricsFuture[T any](metricName string, f wsexec.Future[T]) wsexec.Future[T] {
	return observe(f, &metricsObserver{name: metricName})
}

type metricsObserver struct {
	name      string
	startTime time.Time
}

func (o *metricsObserver) start(string) {
	o.startTime = time.Now()
	meter := otel.GetMeterProvider().Meter(component)
	counter, _ := meter.Int64Counter(o.name + ".count")
	counter.Add(context.Background(), 1)
}

func (o *metricsObserver) suspend(int) {}

func (o *metricsObserver) finish(polls int, err error) {
	ctx := context.Background()
	meter := otel.GetMeterProvider().Meter(component)

	duration, _ := meter.Float64Histogram(o.name+".duration", metric.WithUnit("s"))
	duration.Record(ctx, time.Since(o.startTime).Seconds())

	pollCount, _ := meter.Int64Histogram(o.name+".polls", metric.WithUnit("{poll}"))
	pollCount.Record(ctx, int64(polls))

	if err != nil {
		errorCounter, _ := meter.Int64Counter(o.name + ".errors")
		errorCounter.Add(ctx, 1)
	}
}
