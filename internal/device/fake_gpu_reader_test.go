// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeGPUReaderLifecycle(t *testing.T) {
	reader := NewFakeGPUReader()

	// Readings fail before Init and after Shutdown.
	_, err := reader.PowerUsage()
	assert.Error(t, err)

	require.NoError(t, reader.Init())
	_, err = reader.PowerUsage()
	assert.NoError(t, err)

	require.NoError(t, reader.Shutdown())
	_, err = reader.PowerUsage()
	assert.Error(t, err)
}

func TestFakeGPUReaderDeterministicPower(t *testing.T) {
	reader := NewFakeGPUReader(
		WithFakePowerBase(150.0),
		WithFakePowerRange(0),
	)
	require.NoError(t, reader.Init())
	defer func() { _ = reader.Shutdown() }()

	for i := 0; i < 10; i++ {
		power, err := reader.PowerUsage()
		require.NoError(t, err)
		assert.Equal(t, Power(150.0), power)
	}
}

func TestFakeGPUReaderPowerStaysInRange(t *testing.T) {
	reader := NewFakeGPUReader(
		WithFakePowerBase(100.0),
		WithFakePowerRange(50.0),
	)
	require.NoError(t, reader.Init())
	defer func() { _ = reader.Shutdown() }()

	for i := 0; i < 100; i++ {
		power, err := reader.PowerUsage()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, power.Watts(), 75.0)
		assert.LessOrEqual(t, power.Watts(), 125.0)
	}
}

func TestFakeGPUReaderUtilization(t *testing.T) {
	reader := NewFakeGPUReader()
	require.NoError(t, reader.Init())
	defer func() { _ = reader.Shutdown() }()

	for i := 0; i < 100; i++ {
		util, err := reader.Utilization()
		require.NoError(t, err)
		assert.GreaterOrEqual(t, util, 10)
		assert.LessOrEqual(t, util, 90)
	}
}

func TestFakeGPUReaderProcesses(t *testing.T) {
	reader := NewFakeGPUReader(WithFakeProcesses([]FakeProcess{
		{PID: 42, Name: "renderer", UsedMemoryBytes: 1024},
		{PID: 43, Name: "", UsedMemoryBytes: 2048},
	}))
	require.NoError(t, reader.Init())
	defer func() { _ = reader.Shutdown() }()

	procs, err := reader.RunningProcesses()
	require.NoError(t, err)
	require.Len(t, procs, 2)
	assert.Equal(t, ProcessInfo{PID: 42, UsedMemoryBytes: 1024}, procs[0])
	assert.Equal(t, ProcessInfo{PID: 43, UsedMemoryBytes: 2048}, procs[1])

	name, err := reader.ProcessName(42)
	require.NoError(t, err)
	assert.Equal(t, "renderer", name)

	// An empty scripted name simulates an unresolvable pid.
	_, err = reader.ProcessName(43)
	var nre NameResolutionError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, 43, nre.PID)

	_, err = reader.ProcessName(99)
	assert.ErrorAs(t, err, &nre)
}

func TestFakeGPUReaderSetProcesses(t *testing.T) {
	reader := NewFakeGPUReader()
	require.NoError(t, reader.Init())
	defer func() { _ = reader.Shutdown() }()

	fake, ok := reader.(*fakeGPUReader)
	require.True(t, ok)

	fake.SetProcesses([]FakeProcess{{PID: 7, Name: "late-joiner", UsedMemoryBytes: 512}})

	procs, err := reader.RunningProcesses()
	require.NoError(t, err)
	require.Len(t, procs, 1)
	assert.Equal(t, 7, procs[0].PID)
}

func TestFakeGPUReaderName(t *testing.T) {
	reader := NewFakeGPUReader()
	assert.Equal(t, "fake", reader.Name())

	name, err := reader.DeviceName()
	require.NoError(t, err)
	assert.Equal(t, "Fake GPU 0", name)
}

func TestNameResolutionError(t *testing.T) {
	cause := errors.New("driver said no")
	err := NameResolutionError{PID: 77, Err: cause}

	assert.Contains(t, err.Error(), "77")
	assert.ErrorIs(t, err, cause)
}
