// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/mock"
)

// mockNVMLImpl is a mock implementation of nvmlInterface
type mockNVMLImpl struct {
	mock.Mock
}

func (m *mockNVMLImpl) Init() nvml.Return {
	calledArgs := m.Called()
	return calledArgs.Get(0).(nvml.Return)
}

func (m *mockNVMLImpl) Shutdown() nvml.Return {
	calledArgs := m.Called()
	return calledArgs.Get(0).(nvml.Return)
}

func (m *mockNVMLImpl) DeviceGetHandleByIndex(index int) (nvmlDevice, nvml.Return) {
	calledArgs := m.Called(index)
	dev, _ := calledArgs.Get(0).(nvmlDevice)
	return dev, calledArgs.Get(1).(nvml.Return)
}

func (m *mockNVMLImpl) SystemGetProcessName(pid int) (string, nvml.Return) {
	calledArgs := m.Called(pid)
	return calledArgs.String(0), calledArgs.Get(1).(nvml.Return)
}

// mockNVMLDevice is a mock implementation of nvmlDevice
type mockNVMLDevice struct {
	mock.Mock
}

func (m *mockNVMLDevice) Name() (string, nvml.Return) {
	calledArgs := m.Called()
	return calledArgs.String(0), calledArgs.Get(1).(nvml.Return)
}

func (m *mockNVMLDevice) PowerUsage() (uint32, nvml.Return) {
	calledArgs := m.Called()
	return calledArgs.Get(0).(uint32), calledArgs.Get(1).(nvml.Return)
}

func (m *mockNVMLDevice) UtilizationRates() (nvml.Utilization, nvml.Return) {
	calledArgs := m.Called()
	return calledArgs.Get(0).(nvml.Utilization), calledArgs.Get(1).(nvml.Return)
}

func (m *mockNVMLDevice) ComputeRunningProcesses() ([]nvml.ProcessInfo, nvml.Return) {
	calledArgs := m.Called()
	return calledArgs.Get(0).([]nvml.ProcessInfo), calledArgs.Get(1).(nvml.Return)
}

func (m *mockNVMLDevice) GraphicsRunningProcesses() ([]nvml.ProcessInfo, nvml.Return) {
	calledArgs := m.Called()
	return calledArgs.Get(0).([]nvml.ProcessInfo), calledArgs.Get(1).(nvml.Return)
}
