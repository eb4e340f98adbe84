// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"time"
)

// Summarize computes the final run statistics from a ledger. Total energy
// is the sampled power integrated over the nominal interval across all
// ticks; a process's share is reported against that total, with 0% when no
// energy was measured at all. Summarize does not mutate the ledger and is
// idempotent: calling it twice yields identical summaries.
//
// A run cancelled before its first tick yields a summary with duration 0
// and no processes; that is not an error.
func Summarize(ledger *EnergyLedger, interval, elapsed time.Duration) *RunSummary {
	_, total := ledger.Totals(interval)

	summary := &RunSummary{
		Duration:    elapsed,
		TotalEnergy: total,
		SampleCount: len(ledger.Samples()),
	}

	for _, name := range ledger.Names() {
		energy := ledger.Energy(name)

		percent := 0.0
		if total > 0 {
			percent = energy.Joules() / total.Joules() * 100
		}

		summary.Processes = append(summary.Processes, ProcessEnergy{
			Name:    name,
			Energy:  energy,
			Percent: percent,
		})
	}

	return summary
}
