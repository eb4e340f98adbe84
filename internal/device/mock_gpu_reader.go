// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import "github.com/stretchr/testify/mock"

// MockGPUReader is a testify mock of GPUReader, exported for use by
// packages that drive a reader (monitor tests).
type MockGPUReader struct {
	mock.Mock
}

var _ GPUReader = (*MockGPUReader)(nil)

func (m *MockGPUReader) Name() string {
	calledArgs := m.Called()
	return calledArgs.String(0)
}

func (m *MockGPUReader) DeviceName() (string, error) {
	calledArgs := m.Called()
	return calledArgs.String(0), calledArgs.Error(1)
}

func (m *MockGPUReader) PowerUsage() (Power, error) {
	calledArgs := m.Called()
	return calledArgs.Get(0).(Power), calledArgs.Error(1)
}

func (m *MockGPUReader) Utilization() (int, error) {
	calledArgs := m.Called()
	return calledArgs.Int(0), calledArgs.Error(1)
}

func (m *MockGPUReader) RunningProcesses() ([]ProcessInfo, error) {
	calledArgs := m.Called()
	procs, _ := calledArgs.Get(0).([]ProcessInfo)
	return procs, calledArgs.Error(1)
}

func (m *MockGPUReader) ProcessName(pid int) (string, error) {
	calledArgs := m.Called(pid)
	return calledArgs.String(0), calledArgs.Error(1)
}

func (m *MockGPUReader) Init() error {
	calledArgs := m.Called()
	return calledArgs.Error(0)
}

func (m *MockGPUReader) Shutdown() error {
	calledArgs := m.Called()
	return calledArgs.Error(0)
}
