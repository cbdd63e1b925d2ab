// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/multierr"
)

const instrumentationName = "github.com/petenewcomb/wsexec-go"

// Written only by the owning worker, read by anyone.
type workerStats struct {
	polls        atomic.Int64
	completions  atomic.Int64
	panics       atomic.Int64
	globalSteals atomic.Int64
	peerSteals   atomic.Int64
	retries      atomic.Int64
	parks        atomic.Int64
}

// Stats is a snapshot of a scheduler's cumulative counters. The counters are
// read independently, so a snapshot taken while tasks are running need not be
// consistent across fields.
type Stats struct {
	Workers      int
	Spawned      int64 // tasks submitted
	Polls        int64 // polls of any task
	Completions  int64 // tasks completed, including by panic
	Panics       int64 // polls that panicked
	GlobalSteals int64 // batches taken from the global queue
	PeerSteals   int64 // tasks stolen from another worker's local queue
	Retries      int64 // search rounds repeated due to contention
	Parks        int64 // times a worker went to sleep
}

// Stats returns the scheduler's counters summed across workers.
func (s *Scheduler) Stats() Stats {
	st := Stats{
		Workers: len(s.workers),
		Spawned: s.spawned.Load(),
	}
	for _, w := range s.workers {
		st.Polls += w.stats.polls.Load()
		st.Completions += w.stats.completions.Load()
		st.Panics += w.stats.panics.Load()
		st.GlobalSteals += w.stats.globalSteals.Load()
		st.PeerSteals += w.stats.peerSteals.Load()
		st.Retries += w.stats.retries.Load()
		st.Parks += w.stats.parks.Load()
	}
	return st
}

// registerMetrics exports the scheduler's counters as observable instruments.
// Failures are reported to the global OpenTelemetry error handler and
// otherwise ignored.
func (s *Scheduler) registerMetrics() {
	meter := s.config.MeterProvider.Meter(instrumentationName)

	var errs []error
	counter := func(name, unit, description string) metric.Int64ObservableCounter {
		c, err := meter.Int64ObservableCounter(name,
			metric.WithUnit(unit),
			metric.WithDescription(description),
		)
		errs = append(errs, err)
		return c
	}

	spawned := counter("wsexec.tasks.spawned", "{task}", "Tasks submitted to the scheduler")
	polls := counter("wsexec.tasks.polls", "{poll}", "Task polls performed by workers")
	completions := counter("wsexec.tasks.completed", "{task}", "Tasks completed by workers, including by panic")
	panics := counter("wsexec.tasks.panics", "{panic}", "Task polls that panicked")
	steals := counter("wsexec.steals", "{task}", "Tasks acquired from outside a worker's local queue")
	retries := counter("wsexec.steal.retries", "{round}", "Search rounds repeated due to contention")
	parks := counter("wsexec.worker.parks", "{park}", "Times a worker went to sleep for lack of work")
	queued, err := meter.Int64ObservableGauge("wsexec.global_queue.length",
		metric.WithUnit("{task}"),
		metric.WithDescription("Tasks waiting in the global queue"),
	)
	errs = append(errs, err)

	if err := multierr.Combine(errs...); err != nil {
		otel.Handle(err)
		return
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(spawned, s.spawned.Load())
		o.ObserveInt64(queued, int64(s.injector.Len()))
		for _, w := range s.workers {
			id := attribute.Int("worker", w.id)
			attrs := metric.WithAttributes(id)
			o.ObserveInt64(polls, w.stats.polls.Load(), attrs)
			o.ObserveInt64(completions, w.stats.completions.Load(), attrs)
			o.ObserveInt64(panics, w.stats.panics.Load(), attrs)
			o.ObserveInt64(retries, w.stats.retries.Load(), attrs)
			o.ObserveInt64(parks, w.stats.parks.Load(), attrs)
			o.ObserveInt64(steals, w.stats.globalSteals.Load(),
				metric.WithAttributes(id, attribute.String("source", "global")))
			o.ObserveInt64(steals, w.stats.peerSteals.Load(),
				metric.WithAttributes(id, attribute.String("source", "peer")))
		}
		return nil
	}, spawned, polls, completions, panics, steals, retries, parks, queued)
	if err != nil {
		otel.Handle(err)
	}
}
