// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "fmt"

// ProcessInfo describes one process currently using the GPU, as reported
// by the driver. UsedMemoryBytes is 0 when the driver cannot account the
// per-process memory (e.g. WDDM on Windows).
type ProcessInfo struct {
	PID             int
	UsedMemoryBytes uint64
}

// GPUReader is the driver-facing snapshot source. Implementations wrap a
// vendor library (NVML) or simulate one, so the sampling and attribution
// logic never touches driver code directly.
type GPUReader interface {
	// Name identifies the reader implementation.
	Name() string

	// DeviceName returns the product name of the monitored GPU.
	DeviceName() (string, error)

	// PowerUsage returns the instantaneous board power draw.
	PowerUsage() (Power, error)

	// Utilization returns the GPU utilization percentage (0-100).
	Utilization() (int, error)

	// RunningProcesses lists the processes currently using the device.
	RunningProcesses() ([]ProcessInfo, error)

	// ProcessName resolves the executable name for a pid. It returns a
	// NameResolutionError when the driver cannot resolve the name; callers
	// are expected to recover with a synthetic label.
	ProcessName(pid int) (string, error)

	// Init prepares the underlying driver library.
	Init() error

	// Shutdown releases driver resources.
	Shutdown() error
}

// NameResolutionError indicates that the driver could not resolve the
// executable name for a pid. It is recoverable per process.
type NameResolutionError struct {
	PID int
	Err error
}

func (e NameResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve process name for pid %d: %v", e.PID, e.Err)
}

func (e NameResolutionError) Unwrap() error {
	return e.Err
}
