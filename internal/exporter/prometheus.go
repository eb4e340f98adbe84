// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package exporter

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wattscope/wattscope/internal/monitor"
)

// LiveSource is anything that publishes a per-tick view of the run in
// progress. The Sampler satisfies it.
type LiveSource interface {
	LiveStats() *monitor.LiveStats
}

// Collector exposes the run in progress as Prometheus metrics so long
// audits can be watched live. It reads only the sampler's published view
// and never touches the ledger.
type Collector struct {
	source LiveSource

	powerDesc   *prometheus.Desc
	utilDesc    *prometheus.Desc
	energyDesc  *prometheus.Desc
	samplesDesc *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over a live source
func NewCollector(source LiveSource) *Collector {
	return &Collector{
		source: source,
		powerDesc: prometheus.NewDesc(
			"wattscope_gpu_power_watts",
			"Most recently sampled GPU power draw in watts",
			nil, nil,
		),
		utilDesc: prometheus.NewDesc(
			"wattscope_gpu_utilization_percent",
			"Most recently sampled GPU utilization percentage",
			nil, nil,
		),
		energyDesc: prometheus.NewDesc(
			"wattscope_process_energy_joules_total",
			"Cumulative energy attributed to a process during this run",
			[]string{"process"}, nil,
		),
		samplesDesc: prometheus.NewDesc(
			"wattscope_samples_total",
			"Number of samples recorded during this run",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.powerDesc
	ch <- c.utilDesc
	ch <- c.energyDesc
	ch <- c.samplesDesc
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	stats := c.source.LiveStats()
	if stats == nil {
		// No tick yet.
		return
	}

	ch <- prometheus.MustNewConstMetric(c.powerDesc, prometheus.GaugeValue, stats.LastSample.Power.Watts())
	ch <- prometheus.MustNewConstMetric(c.utilDesc, prometheus.GaugeValue, float64(stats.LastSample.Utilization))
	ch <- prometheus.MustNewConstMetric(c.samplesDesc, prometheus.CounterValue, float64(stats.SampleCount))

	for name, energy := range stats.Attributed {
		ch <- prometheus.MustNewConstMetric(c.energyDesc, prometheus.CounterValue, energy.Joules(), name)
	}
}

// NewMetricsServer returns an HTTP server exposing the registry on /metrics
// at the given listen address.
func NewMetricsServer(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &http.Server{
		Addr:    addr,
		Handler: mux,
	}
}
