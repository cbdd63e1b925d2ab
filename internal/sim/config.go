// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

package sim

import (
	"time"
)

var DefaultConfig = Config{
	RootCount:    BiasedIntConfig{Min: 1, Med: 10, Max: 50},
	MaxDepth:     3,
	ChildCount:   BiasedIntConfig{Min: 0, Med: 1, Max: 4},
	SuspendCount: BiasedIntConfig{Min: 0, Med: 2, Max: 8},
	Value:        BiasedIntConfig{Min: -100, Med: 0, Max: 100},
	TimerDelay: BiasedDurationConfig{
		Min: 0,
		Med: 50 * time.Microsecond,
		Max: 2 * time.Millisecond,
	},
	TimerProbability: BiasedBoolConfig{Probability: 0.3},
	PanicProbability: BiasedBoolConfig{Probability: 0.05},
}

type Config struct {
	RootCount    BiasedIntConfig
	MaxDepth     int
	ChildCount   BiasedIntConfig
	SuspendCount BiasedIntConfig
	Value        BiasedIntConfig

	// TimerDelay applies to suspensions that sleep on the fake timer rather
	// than yielding.
	TimerDelay       BiasedDurationConfig
	TimerProbability BiasedBoolConfig
	PanicProbability BiasedBoolConfig
}
