// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"strings"
	"time"

	"github.com/wattscope/wattscope/internal/device"
)

// Attribute divides a snapshot's power draw among its processes in
// proportion to their GPU memory footprint and converts each share into an
// energy delta over the given interval:
//
//	energy = power * (usedMemory / totalMemory) * interval
//
// This guarantees Sum(process energy) == power * interval whenever every
// process has non-zero memory and no filter is set.
//
// A non-empty filter narrows the returned map to processes whose display
// name contains the filter, case-insensitively. Filtered-out processes
// still count toward the memory denominator, so filtering narrows the
// output, not the split.
//
// Two processes sharing a display name are merged by summation.
func Attribute(snap *Snapshot, interval time.Duration, filter string) map[string]device.Energy {
	deltas := make(map[string]device.Energy, len(snap.Processes))

	var totalMem float64
	for _, p := range snap.Processes {
		totalMem += float64(p.UsedMemoryBytes)
	}
	if totalMem == 0 {
		// Avoids division by zero; every share is then zero.
		totalMem = 1
	}

	seconds := interval.Seconds()

	for _, p := range snap.Processes {
		if !matchesFilter(p.Name, filter) {
			continue
		}

		memFraction := float64(p.UsedMemoryBytes) / totalMem
		deltas[p.Name] += device.Energy(snap.Power.Watts() * memFraction * seconds)
	}

	return deltas
}

// matchesFilter reports whether a display name matches the process filter.
// An empty filter matches everything.
func matchesFilter(name, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(filter))
}
