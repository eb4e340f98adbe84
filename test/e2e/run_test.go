// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

// Package e2e runs the whole pipeline in process: fake reader, real clock,
// sampling loop, report and sample log.
package e2e

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattscope/wattscope/internal/device"
	"github.com/wattscope/wattscope/internal/exporter"
	"github.com/wattscope/wattscope/internal/monitor"
)

const mib = 1024 * 1024

func newRunReader(t *testing.T) device.GPUReader {
	t.Helper()

	reader := device.NewFakeGPUReader(
		device.WithFakePowerBase(200.0),
		device.WithFakePowerRange(0),
		device.WithFakeProcesses([]device.FakeProcess{
			{PID: 1001, Name: "blender", UsedMemoryBytes: 900 * mib},
			{PID: 1002, Name: "ffmpeg", UsedMemoryBytes: 300 * mib},
		}),
	)
	require.NoError(t, reader.Init())
	t.Cleanup(func() { _ = reader.Shutdown() })
	return reader
}

// TestFullRun exercises a complete timed audit: sample for a short wall-clock
// duration, then render the report and write the sample log.
func TestFullRun(t *testing.T) {
	interval := time.Millisecond
	reader := newRunReader(t)

	s := monitor.NewSampler(reader,
		monitor.WithInterval(interval),
		monitor.WithDuration(100*time.Millisecond),
	)

	start := time.Now()
	summary, err := s.Run(context.Background())
	require.NoError(t, err)
	require.NotNil(t, summary)

	assert.GreaterOrEqual(t, summary.Duration, 100*time.Millisecond)
	assert.Greater(t, summary.SampleCount, 0)

	// Constant 200W split 3:1 between the two processes.
	require.Len(t, summary.Processes, 2)
	assert.Equal(t, "blender", summary.Processes[0].Name)
	assert.InDelta(t, 75.0, summary.Processes[0].Percent, 1e-9)
	assert.Equal(t, "ffmpeg", summary.Processes[1].Name)
	assert.InDelta(t, 25.0, summary.Processes[1].Percent, 1e-9)

	perTick := 200.0 * interval.Seconds()
	expectedTotal := perTick * float64(summary.SampleCount)
	assert.InDelta(t, expectedTotal, summary.TotalEnergy.Joules(), 1e-9)

	// Render the report.
	var report bytes.Buffer
	deviceName, err := reader.DeviceName()
	require.NoError(t, err)
	require.NoError(t, exporter.NewStdoutExporter(&report).Export(deviceName, summary))
	assert.Contains(t, report.String(), "blender")
	assert.Contains(t, report.String(), "75.0%")

	// Write and re-read the sample log.
	dir := t.TempDir()
	path, err := exporter.SaveSamples(dir, start, s.Ledger().Samples())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "timestamp,power_w,gpu_util", lines[0])
	assert.Len(t, lines, summary.SampleCount+1)
}

// TestFullRunCancelled verifies early cancellation still yields a usable
// partial result.
func TestFullRunCancelled(t *testing.T) {
	reader := newRunReader(t)

	s := monitor.NewSampler(reader,
		monitor.WithInterval(time.Millisecond),
		monitor.WithDuration(time.Hour),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	summary, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Greater(t, summary.SampleCount, 0)
	assert.Less(t, summary.Duration, time.Hour)
	require.Len(t, summary.Processes, 2)
}

// TestFullRunWithFilter verifies an end-to-end filtered audit.
func TestFullRunWithFilter(t *testing.T) {
	reader := newRunReader(t)

	s := monitor.NewSampler(reader,
		monitor.WithInterval(time.Millisecond),
		monitor.WithDuration(50*time.Millisecond),
		monitor.WithFilter("blend"),
	)

	summary, err := s.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, summary.Processes, 1)
	assert.Equal(t, "blender", summary.Processes[0].Name)
	assert.InDelta(t, 75.0, summary.Processes[0].Percent, 1e-9)
}
