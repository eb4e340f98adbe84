// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattscope/wattscope/internal/device"
	"github.com/wattscope/wattscope/internal/monitor"
)

// stubLiveSource returns a fixed LiveStats view.
type stubLiveSource struct {
	stats *monitor.LiveStats
}

func (s *stubLiveSource) LiveStats() *monitor.LiveStats {
	return s.stats
}

func TestCollector(t *testing.T) {
	source := &stubLiveSource{stats: &monitor.LiveStats{
		LastSample: monitor.Sample{
			Timestamp:   time.Now(),
			Power:       device.Power(150.5),
			Utilization: 73,
		},
		SampleCount: 3,
		Attributed: map[string]device.Energy{
			"game.exe": 1.5,
			"encoder":  0.5,
		},
	}}

	expected := `
# HELP wattscope_gpu_power_watts Most recently sampled GPU power draw in watts
# TYPE wattscope_gpu_power_watts gauge
wattscope_gpu_power_watts 150.5
# HELP wattscope_gpu_utilization_percent Most recently sampled GPU utilization percentage
# TYPE wattscope_gpu_utilization_percent gauge
wattscope_gpu_utilization_percent 73
# HELP wattscope_process_energy_joules_total Cumulative energy attributed to a process during this run
# TYPE wattscope_process_energy_joules_total counter
wattscope_process_energy_joules_total{process="encoder"} 0.5
wattscope_process_energy_joules_total{process="game.exe"} 1.5
# HELP wattscope_samples_total Number of samples recorded during this run
# TYPE wattscope_samples_total counter
wattscope_samples_total 3
`
	err := testutil.CollectAndCompare(NewCollector(source), strings.NewReader(expected))
	require.NoError(t, err)
}

// TestCollectorBeforeFirstTick verifies a scrape before any sample has been
// recorded yields no metrics rather than panicking.
func TestCollectorBeforeFirstTick(t *testing.T) {
	collector := NewCollector(&stubLiveSource{stats: nil})

	assert.Equal(t, 0, testutil.CollectAndCount(collector))
}
