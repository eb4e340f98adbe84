// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"fmt"
	"time"

	"github.com/wattscope/wattscope/internal/device"
)

// Sample is one raw reading from the GPU. Samples are immutable once
// recorded and kept for the whole run.
type Sample struct {
	Timestamp   time.Time
	Power       device.Power
	Utilization int
}

// ProcessUsage is one process's share of the GPU during a single tick.
// Name is the display name, already resolved with the PID_<pid> fallback
// when the driver could not resolve it.
type ProcessUsage struct {
	PID             int
	Name            string
	UsedMemoryBytes uint64
}

// Snapshot is everything the reader reports for one tick.
type Snapshot struct {
	Time        time.Time
	Power       device.Power
	Utilization int
	Processes   []ProcessUsage
}

// ProcessEnergy is one row of the final report.
type ProcessEnergy struct {
	Name    string
	Energy  device.Energy
	Percent float64
}

// RunSummary holds the derived results of a run. It is computed once when
// the sampling loop ends and never mutated afterwards.
type RunSummary struct {
	Duration    time.Duration
	TotalEnergy device.Energy
	SampleCount int

	// Processes are listed in the order they were first observed.
	Processes []ProcessEnergy
}

// LiveStats is the sampler's published view of the run in progress,
// consumed by exporters. Each tick replaces it wholesale; readers must
// treat it as immutable.
type LiveStats struct {
	LastSample  Sample
	SampleCount int
	Attributed  map[string]device.Energy
}

// TargetProcessNotFoundError indicates that a process filter was supplied
// but no process currently on the GPU matches it. The run must not start.
type TargetProcessNotFoundError struct {
	Filter string
}

func (e TargetProcessNotFoundError) Error() string {
	return fmt.Sprintf("target process %q not found running on GPU", e.Filter)
}

// FallbackName is the synthetic display name for a pid whose name the
// driver could not resolve.
func FallbackName(pid int) string {
	return fmt.Sprintf("PID_%d", pid)
}
