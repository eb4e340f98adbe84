// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"time"

	"github.com/wattscope/wattscope/internal/device"
)

// EnergyLedger is the mutable running state of one run: cumulative energy
// per process display name plus the append-only sequence of raw samples.
// Per-process totals are monotonically non-decreasing; a new name may
// appear at any tick.
//
// The ledger is owned exclusively by the sampling loop and written only
// inside tick processing, so it needs no locking.
type EnergyLedger struct {
	energy  map[string]device.Energy
	order   []string // display names in first-observed order
	samples []Sample
}

// NewEnergyLedger creates an empty ledger
func NewEnergyLedger() *EnergyLedger {
	return &EnergyLedger{
		energy: make(map[string]device.Energy),
	}
}

// Add merges an energy delta into a process's running total, creating the
// entry if the name has not been seen before. It always succeeds.
func (l *EnergyLedger) Add(name string, delta device.Energy) {
	if _, seen := l.energy[name]; !seen {
		l.order = append(l.order, name)
	}
	l.energy[name] += delta
}

// AppendSample records one raw sample. Samples are never trimmed; growth is
// bounded by the run duration.
func (l *EnergyLedger) AppendSample(s Sample) {
	l.samples = append(l.samples, s)
}

// Energy returns the cumulative energy attributed to a display name.
func (l *EnergyLedger) Energy(name string) device.Energy {
	return l.energy[name]
}

// Names returns the display names in the order they were first observed.
func (l *EnergyLedger) Names() []string {
	names := make([]string, len(l.order))
	copy(names, l.order)
	return names
}

// Samples returns the recorded samples in chronological order.
func (l *EnergyLedger) Samples() []Sample {
	return l.samples
}

// Totals returns the energy total from both sides of the ledger: attributed
// is the sum of all per-process values, measured is the sampled power
// integrated over the nominal interval across all ticks. The two match when
// no filter excluded processes; attributed <= measured otherwise.
func (l *EnergyLedger) Totals(interval time.Duration) (attributed, measured device.Energy) {
	for _, e := range l.energy {
		attributed += e
	}

	seconds := interval.Seconds()
	for _, s := range l.samples {
		measured += device.Energy(s.Power.Watts() * seconds)
	}

	return attributed, measured
}

// snapshotEnergy returns a copy of the per-process totals for publication
// to concurrent readers.
func (l *EnergyLedger) snapshotEnergy() map[string]device.Energy {
	out := make(map[string]device.Energy, len(l.energy))
	for name, e := range l.energy {
		out[name] = e
	}
	return out
}
