// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattscope/wattscope/internal/monitor"
)

func TestWriteSamples(t *testing.T) {
	base := time.Unix(1756500000, 500000000).UTC()
	samples := []monitor.Sample{
		{Timestamp: base, Power: 123.4, Utilization: 87},
		{Timestamp: base.Add(10 * time.Millisecond), Power: 125, Utilization: 90},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSamples(&buf, samples))

	expected := "timestamp,power_w,gpu_util\n" +
		"1756500000.500000,123.4,87\n" +
		"1756500000.510000,125,90\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteSamplesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSamples(&buf, nil))

	// Header only: the file is still a valid, parseable log.
	assert.Equal(t, "timestamp,power_w,gpu_util\n", buf.String())
}

func TestLogFilename(t *testing.T) {
	at := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)
	assert.Equal(t, "gpu_log_20260830_140509.csv", LogFilename(at))
}

func TestSaveSamples(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 8, 30, 14, 5, 9, 0, time.UTC)
	samples := []monitor.Sample{
		{Timestamp: at, Power: 100, Utilization: 50},
	}

	path, err := SaveSamples(dir, at, samples)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gpu_log_20260830_140509.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timestamp,power_w,gpu_util\n")
	assert.Contains(t, string(data), ",100,50\n")
}

func TestSaveSamplesBadDir(t *testing.T) {
	_, err := SaveSamples("/nonexistent/wattscope", time.Now(), nil)
	assert.ErrorContains(t, err, "failed to create sample log")
}
