// Copyright (c) Peter Newcomb. All rights reserved.
// Licensed under the MIT License.

// Package sim generates and executes simulated workloads for a wsexec
// scheduler. A plan is a forest of tasks. Each task suspends some number of
// times, either by yielding or by sleeping on a fake timer, then spawns its
// children, awaits them all, and either returns the sum of its own value and
// its children's results or panics. New plans are generated according to a
// set of configuration parameters that determine the size and shape of the
// forest.
package sim
