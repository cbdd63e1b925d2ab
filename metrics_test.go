// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec_test

import (
	"context"
	"testing"
	"time"

	"github.com/petenewcomb/wsexec-go"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// sumOf totals the data points of the named counter, optionally restricted to
// points carrying attr.
func sumOf(rm *metricdata.ResourceMetrics, name string, attr *attribute.KeyValue) (int64, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			var total int64
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					if attr != nil {
						if v, ok := dp.Attributes.Value(attr.Key); !ok || v.Emit() != attr.Value.Emit() {
							continue
						}
					}
					total += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					total += dp.Value
				}
			default:
				return 0, false
			}
			return total, true
		}
	}
	return 0, false
}

func TestSchedulerMetricsAndLogs(t *testing.T) {
	chk := require.New(t)
	ctx := testContext(t)

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	core, logs := observer.New(zapcore.DebugLevel)

	s := wsexec.NewScheduler(&wsexec.Config{
		Workers:       2,
		Logger:        zap.New(core),
		MeterProvider: mp,
	})

	chk.Eventually(func() bool {
		return logs.FilterMessage("Starting worker").Len() == 2
	}, 5*time.Second, time.Millisecond)

	const count = 100
	for i := range count {
		_, err := wsexec.SpawnOn(s, wsexec.Async(func(aw *wsexec.Awaiter) int {
			wsexec.Await(aw, wsexec.Yield())
			return i
		})).Wait(ctx)
		chk.NoError(err)
	}
	_, err := wsexec.SpawnOn(s, wsexec.Func(func() int { panic("metrics boom") })).Wait(ctx)
	chk.ErrorIs(err, wsexec.ErrTaskPanic)

	panicLogs := logs.FilterMessage("Task panicked").All()
	chk.Len(panicLogs, 1)
	chk.Equal(zapcore.ErrorLevel, panicLogs[0].Level)
	fields := panicLogs[0].ContextMap()
	chk.Equal("metrics boom", fields["panic"])
	chk.NotEmpty(fields["stack"])

	collect := func() *metricdata.ResourceMetrics {
		var rm metricdata.ResourceMetrics
		chk.NoError(reader.Collect(ctx, &rm))
		return &rm
	}

	rm := collect()
	spawned, ok := sumOf(rm, "wsexec.tasks.spawned", nil)
	chk.True(ok)
	chk.Equal(int64(count+1), spawned)

	polls, ok := sumOf(rm, "wsexec.tasks.polls", nil)
	chk.True(ok)
	chk.Equal(int64(2*count+1), polls)

	panics, ok := sumOf(rm, "wsexec.tasks.panics", nil)
	chk.True(ok)
	chk.Equal(int64(1), panics)

	global := attribute.String("source", "global")
	globalSteals, ok := sumOf(rm, "wsexec.steals", &global)
	chk.True(ok)
	chk.Positive(globalSteals)

	queued, ok := sumOf(rm, "wsexec.global_queue.length", nil)
	chk.True(ok)
	chk.Zero(queued)

	_, ok = sumOf(rm, "wsexec.worker.parks", nil)
	chk.True(ok)
	_, ok = sumOf(rm, "wsexec.steal.retries", nil)
	chk.True(ok)

	chk.Eventually(func() bool {
		completed, ok := sumOf(collect(), "wsexec.tasks.completed", nil)
		return ok && completed == count+1
	}, 5*time.Second, time.Millisecond)

	st := s.Stats()
	chk.Equal(2, st.Workers)
	chk.Equal(spawned, st.Spawned)
	chk.Equal(polls, st.Polls)
	chk.Equal(int64(1), st.Panics)
}
