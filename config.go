// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package wsexec

import (
	"runtime"
	"time"

	"github.com/petenewcomb/wsexec-go/internal/deque"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// QueueOrder selects the order in which a worker runs the tasks in its own
// local queue. Peers always steal the oldest task.
type QueueOrder = deque.Order

const (
	// FIFO workers run their oldest local task first.
	FIFO = deque.FIFO
	// LIFO workers run their newest local task first.
	LIFO = deque.LIFO
)

const (
	defaultBatchLimit  = 32
	defaultSpinRounds  = 16
	defaultParkTimeout = 100 * time.Millisecond
)

// DefaultConfig holds the settings used by [Default] and by [NewScheduler]
// when passed nil.
var DefaultConfig = Config{
	BatchLimit:  defaultBatchLimit,
	SpinRounds:  defaultSpinRounds,
	ParkTimeout: defaultParkTimeout,
}

// Config controls the construction of a [Scheduler]. Zero-valued fields take
// their defaults.
type Config struct {
	// Workers is the number of worker goroutines. Zero means
	// runtime.NumCPU().
	Workers int

	// LocalQueue is the order of each worker's local queue.
	LocalQueue QueueOrder

	// BatchLimit caps the number of tasks a worker moves from the global queue
	// into its local queue in one steal.
	BatchLimit int

	// SpinRounds is how many times an idle worker yields and searches again
	// before parking. At most half of the workers spin at once.
	SpinRounds int

	// ParkTimeout bounds how long a parked worker sleeps before searching for
	// work again without being notified. Negative values disable the timeout.
	ParkTimeout time.Duration

	// LockOSThread dedicates an OS thread to each worker.
	LockOSThread bool

	// Logger defaults to zap.L() as of scheduler construction.
	Logger *zap.Logger

	// MeterProvider receives the scheduler's metrics. It defaults to
	// otel.GetMeterProvider() as of scheduler construction.
	MeterProvider metric.MeterProvider
}

func (c Config) resolve() Config {
	if c.Workers < 0 {
		panic("worker count must not be negative")
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.LocalQueue != FIFO && c.LocalQueue != LIFO {
		panic("invalid local queue order")
	}
	if c.BatchLimit < 0 {
		panic("batch limit must not be negative")
	}
	if c.BatchLimit == 0 {
		c.BatchLimit = defaultBatchLimit
	}
	if c.SpinRounds < 0 {
		panic("spin rounds must not be negative")
	}
	if c.SpinRounds == 0 {
		c.SpinRounds = defaultSpinRounds
	}
	if c.ParkTimeout == 0 {
		c.ParkTimeout = defaultParkTimeout
	}
	if c.Logger == nil {
		c.Logger = zap.L()
	}
	if c.MeterProvider == nil {
		c.MeterProvider = otel.GetMeterProvider()
	}
	return c
}
