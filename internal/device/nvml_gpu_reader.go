// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// memoryNotAvailable is the NVML sentinel for "value not available"
// (seen for usedGpuMemory under WDDM). Readings carrying it are clamped to 0.
const memoryNotAvailable = uint64(math.MaxUint64)

// NVMLGPUReader reads power, utilization and process data for a single GPU
// through NVML. It is not safe for concurrent use; the sampling loop is the
// only caller.
type NVMLGPUReader struct {
	logger      *slog.Logger
	deviceIndex int
	device      nvmlDevice
}

var _ GPUReader = (*NVMLGPUReader)(nil)

// NVMLGPUReaderOpts contains options for the NVML GPU reader
type NVMLGPUReaderOpts struct {
	Logger      *slog.Logger
	DeviceIndex int
}

// NewNVMLGPUReader creates a reader for the GPU at the given device index.
// Init must be called before any reading method.
func NewNVMLGPUReader(opts NVMLGPUReaderOpts) *NVMLGPUReader {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &NVMLGPUReader{
		logger:      opts.Logger.With("reader", "nvml"),
		deviceIndex: opts.DeviceIndex,
	}
}

// Name returns the reader name
func (r *NVMLGPUReader) Name() string {
	return "nvml"
}

// Init initializes NVML and acquires the device handle
func (r *NVMLGPUReader) Init() error {
	if ret := nvmlLib.Init(); ret != nvml.SUCCESS && ret != nvml.ERROR_ALREADY_INITIALIZED {
		return fmt.Errorf("failed to initialize NVML: %s", nvml.ErrorString(ret))
	}

	dev, ret := nvmlLib.DeviceGetHandleByIndex(r.deviceIndex)
	if ret != nvml.SUCCESS {
		return fmt.Errorf("failed to get handle for GPU %d: %s", r.deviceIndex, nvml.ErrorString(ret))
	}
	r.device = dev

	if name, ret := dev.Name(); ret == nvml.SUCCESS {
		r.logger.Info("Initialized NVML reader", "gpu", r.deviceIndex, "name", name)
	}

	return nil
}

// Shutdown releases the NVML library
func (r *NVMLGPUReader) Shutdown() error {
	if ret := nvmlLib.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("failed to shutdown NVML: %s", nvml.ErrorString(ret))
	}
	return nil
}

// DeviceName returns the product name of the monitored GPU
func (r *NVMLGPUReader) DeviceName() (string, error) {
	name, ret := r.device.Name()
	if ret != nvml.SUCCESS {
		return "", fmt.Errorf("failed to get name for GPU %d: %s", r.deviceIndex, nvml.ErrorString(ret))
	}
	return name, nil
}

// PowerUsage returns the instantaneous board power draw.
// NVML reports milliwatts.
func (r *NVMLGPUReader) PowerUsage() (Power, error) {
	mw, ret := r.device.PowerUsage()
	if ret != nvml.SUCCESS {
		return 0, fmt.Errorf("failed to read power for GPU %d: %s", r.deviceIndex, nvml.ErrorString(ret))
	}
	return Power(float64(mw) / 1000.0), nil
}

// Utilization returns the GPU utilization percentage
func (r *NVMLGPUReader) Utilization() (int, error) {
	util, ret := r.device.UtilizationRates()
	if ret != nvml.SUCCESS {
		return 0, fmt.Errorf("failed to read utilization for GPU %d: %s", r.deviceIndex, nvml.ErrorString(ret))
	}
	return int(util.Gpu), nil
}

// RunningProcesses lists the processes currently using the device. Graphics
// and compute process lists are merged and deduplicated by pid, since a
// process may appear in both.
func (r *NVMLGPUReader) RunningProcesses() ([]ProcessInfo, error) {
	compute, ret := r.device.ComputeRunningProcesses()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to list compute processes for GPU %d: %s", r.deviceIndex, nvml.ErrorString(ret))
	}

	graphics, ret := r.device.GraphicsRunningProcesses()
	if ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to list graphics processes for GPU %d: %s", r.deviceIndex, nvml.ErrorString(ret))
	}

	seen := make(map[uint32]bool, len(graphics)+len(compute))
	procs := make([]ProcessInfo, 0, len(graphics)+len(compute))
	for _, p := range append(graphics, compute...) {
		if seen[p.Pid] {
			continue
		}
		seen[p.Pid] = true

		mem := p.UsedGpuMemory
		if mem == memoryNotAvailable {
			mem = 0
		}
		procs = append(procs, ProcessInfo{
			PID:             int(p.Pid),
			UsedMemoryBytes: mem,
		})
	}

	return procs, nil
}

// ProcessName resolves the executable name for a pid
func (r *NVMLGPUReader) ProcessName(pid int) (string, error) {
	name, ret := nvmlLib.SystemGetProcessName(pid)
	if ret != nvml.SUCCESS {
		return "", NameResolutionError{
			PID: pid,
			Err: errors.New(nvml.ErrorString(ret)),
		}
	}
	return name, nil
}
