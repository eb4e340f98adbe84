// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/wattscope/wattscope/internal/device"
)

// Sampler drives the fixed-cadence sampling loop: it queries the GPU reader
// once per tick, attributes the sampled power to the processes on the
// device, and accumulates the result in its ledger.
//
// Energy is integrated over the nominal tick interval, not the measured
// inter-tick time. Scheduling jitter therefore biases totals slightly when
// ticks run long; the nominal rate is treated as the unit of measurement.
type Sampler struct {
	logger   *slog.Logger
	reader   device.GPUReader
	clock    clock.WithTicker
	interval time.Duration
	duration time.Duration
	filter   string

	ledger *EnergyLedger
	live   atomic.Pointer[LiveStats]
}

// OptionFn is a functional option for configuring the Sampler
type OptionFn func(*Sampler)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) OptionFn {
	return func(s *Sampler) {
		s.logger = logger
	}
}

// WithInterval sets the target sampling interval
func WithInterval(interval time.Duration) OptionFn {
	return func(s *Sampler) {
		s.interval = interval
	}
}

// WithDuration sets the run duration
func WithDuration(duration time.Duration) OptionFn {
	return func(s *Sampler) {
		s.duration = duration
	}
}

// WithFilter sets the process name filter (case-insensitive substring)
func WithFilter(filter string) OptionFn {
	return func(s *Sampler) {
		s.filter = filter
	}
}

// WithClock sets the clock, used by tests to control the loop
func WithClock(c clock.WithTicker) OptionFn {
	return func(s *Sampler) {
		s.clock = c
	}
}

// NewSampler creates a Sampler over the given reader. Defaults: 10ms
// interval, 60s duration, no filter.
func NewSampler(reader device.GPUReader, opts ...OptionFn) *Sampler {
	s := &Sampler{
		logger:   slog.Default(),
		reader:   reader,
		clock:    clock.RealClock{},
		interval: 10 * time.Millisecond,
		duration: 60 * time.Second,
		ledger:   NewEnergyLedger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With("service", "sampler")
	return s
}

// Ledger exposes the run's ledger. It must not be read while Run is active;
// exporters running concurrently use LiveStats instead.
func (s *Sampler) Ledger() *EnergyLedger {
	return s.ledger
}

// LiveStats returns the most recently published tick view, or nil before
// the first tick. Safe for concurrent use.
func (s *Sampler) LiveStats() *LiveStats {
	return s.live.Load()
}

// Interval returns the nominal sampling interval.
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// Run executes the sampling loop until the configured duration elapses or
// ctx is cancelled, whichever comes first. Cancellation is a normal early
// termination: the summary still covers every sample recorded so far.
//
// When a process filter is set, Run fails with TargetProcessNotFoundError
// before recording any sample if no current process matches it. Reader
// failures other than name resolution abort the run.
func (s *Sampler) Run(ctx context.Context) (*RunSummary, error) {
	if err := s.validateFilter(); err != nil {
		return nil, err
	}

	if name, err := s.reader.DeviceName(); err == nil {
		s.logger.Info("Monitoring GPU", "name", name)
	}
	if s.filter != "" {
		s.logger.Info("Tracking target process", "filter", s.filter)
	}

	start := s.clock.Now()
	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	cancelled := false
	for s.clock.Since(start) < s.duration {
		if ctx.Err() != nil {
			cancelled = true
			break
		}

		snap, err := s.takeSnapshot()
		if err != nil {
			return nil, fmt.Errorf("sampling failed: %w", err)
		}
		s.record(snap)

		// Sleep for the nominal interval, but wake early on cancellation
		// so partial results are never lost.
		select {
		case <-ctx.Done():
			cancelled = true
		case <-ticker.C():
		}
		if cancelled {
			break
		}
	}

	elapsed := s.clock.Since(start)
	s.logger.Info("Sampling finished",
		"elapsed", elapsed,
		"samples", len(s.ledger.Samples()),
		"cancelled", cancelled,
	)

	return Summarize(s.ledger, s.interval, elapsed), nil
}

// validateFilter checks that at least one process currently on the GPU
// matches the configured filter. Processes whose names cannot be resolved
// are matched under their fallback label.
func (s *Sampler) validateFilter() error {
	if s.filter == "" {
		return nil
	}

	procs, err := s.reader.RunningProcesses()
	if err != nil {
		return fmt.Errorf("cannot list GPU processes: %w", err)
	}

	for _, p := range procs {
		if matchesFilter(s.resolveName(p.PID), s.filter) {
			return nil
		}
	}

	return TargetProcessNotFoundError{Filter: s.filter}
}

// takeSnapshot queries the reader once. Any failure other than per-process
// name resolution is fatal for the run: there is no meaningful partial tick.
func (s *Sampler) takeSnapshot() (*Snapshot, error) {
	power, err := s.reader.PowerUsage()
	if err != nil {
		return nil, err
	}

	util, err := s.reader.Utilization()
	if err != nil {
		return nil, err
	}

	procs, err := s.reader.RunningProcesses()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Time:        s.clock.Now(),
		Power:       power,
		Utilization: util,
		Processes:   make([]ProcessUsage, 0, len(procs)),
	}

	for _, p := range procs {
		snap.Processes = append(snap.Processes, ProcessUsage{
			PID:             p.PID,
			Name:            s.resolveName(p.PID),
			UsedMemoryBytes: p.UsedMemoryBytes,
		})
	}

	return snap, nil
}

// resolveName resolves a pid's display name, falling back to a synthetic
// PID_<pid> label when the driver cannot resolve it. The failure is never
// surfaced; the process still participates in attribution.
func (s *Sampler) resolveName(pid int) string {
	name, err := s.reader.ProcessName(pid)
	if err != nil {
		var nre device.NameResolutionError
		if !errors.As(err, &nre) {
			s.logger.Warn("Unexpected process name lookup failure", "pid", pid, "error", err)
		}
		return FallbackName(pid)
	}
	return name
}

// record processes one tick: append the raw sample, attribute the power
// draw, and merge the deltas into the ledger. Deltas are merged in snapshot
// order so first-observed report ordering is deterministic.
func (s *Sampler) record(snap *Snapshot) {
	s.ledger.AppendSample(Sample{
		Timestamp:   snap.Time,
		Power:       snap.Power,
		Utilization: snap.Utilization,
	})

	deltas := Attribute(snap, s.interval, s.filter)

	applied := make(map[string]bool, len(deltas))
	for _, p := range snap.Processes {
		if applied[p.Name] {
			continue
		}
		if delta, ok := deltas[p.Name]; ok {
			s.ledger.Add(p.Name, delta)
			applied[p.Name] = true
		}
	}

	s.live.Store(&LiveStats{
		LastSample: Sample{
			Timestamp:   snap.Time,
			Power:       snap.Power,
			Utilization: snap.Utilization,
		},
		SampleCount: len(s.ledger.Samples()),
		Attributed:  s.ledger.snapshotEnergy(),
	})
}
