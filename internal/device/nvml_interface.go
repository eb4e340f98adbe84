// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlInterface defines the methods we use from the NVML library.
// This interface allows us to mock the NVML library for testing.
type nvmlInterface interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetHandleByIndex(index int) (nvmlDevice, nvml.Return)
	SystemGetProcessName(pid int) (string, nvml.Return)
}

// nvmlDevice is the per-device subset of the NVML API the reader needs.
type nvmlDevice interface {
	Name() (string, nvml.Return)
	PowerUsage() (uint32, nvml.Return)
	UtilizationRates() (nvml.Utilization, nvml.Return)
	ComputeRunningProcesses() ([]nvml.ProcessInfo, nvml.Return)
	GraphicsRunningProcesses() ([]nvml.ProcessInfo, nvml.Return)
}

// defaultNVMLImpl is the default implementation that calls the actual NVML library
type defaultNVMLImpl struct{}

func (n *defaultNVMLImpl) Init() nvml.Return {
	return nvml.Init()
}

func (n *defaultNVMLImpl) Shutdown() nvml.Return {
	return nvml.Shutdown()
}

func (n *defaultNVMLImpl) DeviceGetHandleByIndex(index int) (nvmlDevice, nvml.Return) {
	dev, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return &defaultNVMLDevice{dev: dev}, ret
}

func (n *defaultNVMLImpl) SystemGetProcessName(pid int) (string, nvml.Return) {
	return nvml.SystemGetProcessName(pid)
}

// defaultNVMLDevice wraps an NVML device handle
type defaultNVMLDevice struct {
	dev nvml.Device
}

func (d *defaultNVMLDevice) Name() (string, nvml.Return) {
	return d.dev.GetName()
}

func (d *defaultNVMLDevice) PowerUsage() (uint32, nvml.Return) {
	return d.dev.GetPowerUsage()
}

func (d *defaultNVMLDevice) UtilizationRates() (nvml.Utilization, nvml.Return) {
	return d.dev.GetUtilizationRates()
}

func (d *defaultNVMLDevice) ComputeRunningProcesses() ([]nvml.ProcessInfo, nvml.Return) {
	return d.dev.GetComputeRunningProcesses()
}

func (d *defaultNVMLDevice) GraphicsRunningProcesses() ([]nvml.ProcessInfo, nvml.Return) {
	return d.dev.GetGraphicsRunningProcesses()
}

// nvmlLib is the instance used by the code, initialized to the default implementation
var nvmlLib nvmlInterface = &defaultNVMLImpl{}
