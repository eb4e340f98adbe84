// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

// Package exporter renders run results: the human-readable report, the raw
// sample log, and an optional live Prometheus endpoint.
package exporter

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/wattscope/wattscope/internal/monitor"
)

// StdoutExporter writes the human-readable run report.
type StdoutExporter struct {
	writer io.Writer
}

// NewStdoutExporter creates a stdout exporter writing to w
func NewStdoutExporter(w io.Writer) *StdoutExporter {
	return &StdoutExporter{writer: w}
}

// Export renders the run summary: total duration, total energy in kWh, and
// one row per process with its energy and share of the total, in the order
// processes were first observed.
func (e *StdoutExporter) Export(deviceName string, summary *monitor.RunSummary) error {
	fmt.Fprintf(e.writer, "GPU: %s\n", deviceName)
	fmt.Fprintf(e.writer, "Duration: %.2f s\n", summary.Duration.Seconds())
	fmt.Fprintf(e.writer, "Samples: %d\n", summary.SampleCount)
	fmt.Fprintf(e.writer, "Total GPU Energy: %.6f kWh\n\n", summary.TotalEnergy.KiloWattHours())

	if len(summary.Processes) == 0 {
		fmt.Fprintln(e.writer, "No process energy recorded.")
		return nil
	}

	table := tablewriter.NewTable(e.writer)
	table.Header([]string{"Process", "Energy (kWh)", "Share"})

	for _, p := range summary.Processes {
		row := []string{
			p.Name,
			fmt.Sprintf("%.6f", p.Energy.KiloWattHours()),
			fmt.Sprintf("%.1f%%", p.Percent),
		}
		if err := table.Append(row); err != nil {
			return fmt.Errorf("failed to append report row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return nil
}
