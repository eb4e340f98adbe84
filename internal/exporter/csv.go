// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wattscope/wattscope/internal/monitor"
)

// csvHeader is a compatibility contract: downstream tooling parses this
// exact header. Values carry no unit suffixes.
var csvHeader = []string{"timestamp", "power_w", "gpu_util"}

// WriteSamples writes the raw sample log as CSV: the fixed header followed
// by one row per sample in chronological order. Timestamps are fractional
// unix seconds.
func WriteSamples(w io.Writer, samples []monitor.Sample) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, s := range samples {
		ts := float64(s.Timestamp.UnixNano()) / float64(time.Second)
		row := []string{
			strconv.FormatFloat(ts, 'f', 6, 64),
			strconv.FormatFloat(s.Power.Watts(), 'f', -1, 64),
			strconv.Itoa(s.Utilization),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// LogFilename returns the timestamped name of a sample log started at t.
func LogFilename(t time.Time) string {
	return "gpu_log_" + t.Format("20060102_150405") + ".csv"
}

// SaveSamples writes the sample log to a timestamped CSV file under dir and
// returns its path.
func SaveSamples(dir string, at time.Time, samples []monitor.Sample) (string, error) {
	path := filepath.Join(dir, LogFilename(at))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create sample log: %w", err)
	}

	if err := WriteSamples(f, samples); err != nil {
		_ = f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close sample log: %w", err)
	}

	return path, nil
}
