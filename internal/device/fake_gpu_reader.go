// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"errors"
	"log/slog"
	"math/rand"
	"sync"
)

// FakeProcess scripts one process for the fake reader. A process with an
// empty Name simulates a pid whose name the driver cannot resolve.
type FakeProcess struct {
	PID             int
	Name            string
	UsedMemoryBytes uint64
}

// fakeGPUReader implements GPUReader for development and testing on hosts
// without a GPU. Power readings vary randomly around a base value unless the
// range is set to 0, which makes the reader fully deterministic.
type fakeGPUReader struct {
	logger     *slog.Logger
	deviceName string
	powerBase  float64 // Base power draw in watts
	powerRange float64 // Power variation range in watts

	mu        sync.Mutex
	processes []FakeProcess
	running   bool
}

var _ GPUReader = (*fakeGPUReader)(nil)

// FakeGPUOptFn is a functional option for configuring the fake GPU reader
type FakeGPUOptFn func(*fakeGPUReader)

// WithFakeLogger sets the logger
func WithFakeLogger(logger *slog.Logger) FakeGPUOptFn {
	return func(r *fakeGPUReader) {
		r.logger = logger
	}
}

// WithFakePowerBase sets the base power draw
func WithFakePowerBase(watts float64) FakeGPUOptFn {
	return func(r *fakeGPUReader) {
		r.powerBase = watts
	}
}

// WithFakePowerRange sets the power variation range
func WithFakePowerRange(watts float64) FakeGPUOptFn {
	return func(r *fakeGPUReader) {
		r.powerRange = watts
	}
}

// WithFakeProcesses sets the scripted process list
func WithFakeProcesses(procs []FakeProcess) FakeGPUOptFn {
	return func(r *fakeGPUReader) {
		r.processes = procs
	}
}

// NewFakeGPUReader creates a new fake GPU reader
func NewFakeGPUReader(opts ...FakeGPUOptFn) GPUReader {
	reader := &fakeGPUReader{
		logger:     slog.Default(),
		deviceName: "Fake GPU 0",
		powerBase:  100.0, // 100W base
		powerRange: 50.0,  // ±50W variation
		processes: []FakeProcess{
			{PID: 1234, Name: "fake-game.exe", UsedMemoryBytes: 600 * 1024 * 1024},
			{PID: 5678, Name: "fake-encoder", UsedMemoryBytes: 200 * 1024 * 1024},
		},
	}

	for _, opt := range opts {
		opt(reader)
	}

	reader.logger = reader.logger.With("reader", "fake")

	return reader
}

// Name returns the reader name
func (r *fakeGPUReader) Name() string {
	return "fake"
}

// Init marks the reader as running
func (r *fakeGPUReader) Init() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = true
	r.logger.Info("Initialized fake GPU reader", "name", r.deviceName, "processes", len(r.processes))
	return nil
}

// Shutdown marks the reader as stopped
func (r *fakeGPUReader) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.running = false
	return nil
}

// DeviceName returns the fake device name
func (r *fakeGPUReader) DeviceName() (string, error) {
	return r.deviceName, nil
}

// PowerUsage returns a simulated power reading
func (r *fakeGPUReader) PowerUsage() (Power, error) {
	if err := r.checkRunning(); err != nil {
		return 0, err
	}

	variation := (rand.Float64() - 0.5) * r.powerRange
	return Power(r.powerBase + variation), nil
}

// Utilization returns a simulated utilization percentage
func (r *fakeGPUReader) Utilization() (int, error) {
	if err := r.checkRunning(); err != nil {
		return 0, err
	}

	return 10 + rand.Intn(81), nil
}

// RunningProcesses returns the scripted process list
func (r *fakeGPUReader) RunningProcesses() ([]ProcessInfo, error) {
	if err := r.checkRunning(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	procs := make([]ProcessInfo, 0, len(r.processes))
	for _, p := range r.processes {
		procs = append(procs, ProcessInfo{
			PID:             p.PID,
			UsedMemoryBytes: p.UsedMemoryBytes,
		})
	}
	return procs, nil
}

// ProcessName resolves a scripted process name
func (r *fakeGPUReader) ProcessName(pid int) (string, error) {
	if err := r.checkRunning(); err != nil {
		return "", err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.processes {
		if p.PID != pid {
			continue
		}
		if p.Name == "" {
			return "", NameResolutionError{PID: pid, Err: errors.New("name not scripted")}
		}
		return p.Name, nil
	}
	return "", NameResolutionError{PID: pid, Err: errors.New("unknown pid")}
}

// SetProcesses allows tests to swap the scripted process list mid-run
func (r *fakeGPUReader) SetProcesses(procs []FakeProcess) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processes = procs
}

func (r *fakeGPUReader) checkRunning() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.running {
		return errors.New("fake GPU reader not initialized")
	}
	return nil
}
