// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"k8s.io/utils/ptr"

	"github.com/wattscope/wattscope/config"
	"github.com/wattscope/wattscope/internal/device"
	"github.com/wattscope/wattscope/internal/exporter"
	"github.com/wattscope/wattscope/internal/monitor"
)

const version = "0.3.1"

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		slog.Error("wattscope terminated with an error", "error", err)
		os.Exit(1)
	}
}

func realMain(args []string) error {
	app := kingpin.New("wattscope", "Samples GPU power draw at a fixed cadence and attributes the energy to the processes using the device.")
	app.Version(version)
	app.HelpFlag.Short('h')

	configFile := app.Flag("config", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)

	kingpin.MustParse(app.Parse(args))

	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.FromFile(*configFile)
		if err != nil {
			return fmt.Errorf("failed to load config %q: %w", *configFile, err)
		}
		cfg = loaded
	}
	if err := updateConfig(cfg); err != nil {
		return err
	}

	logger := newLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	logger.Debug("Configuration resolved", "config", cfg.String())

	reader, err := newReader(cfg, logger)
	if err != nil {
		return err
	}
	if err := reader.Init(); err != nil {
		return fmt.Errorf("failed to initialize GPU reader: %w", err)
	}
	defer func() {
		if err := reader.Shutdown(); err != nil {
			logger.Warn("GPU reader shutdown failed", "error", err)
		}
	}()

	sampler := monitor.NewSampler(reader,
		monitor.WithLogger(logger),
		monitor.WithInterval(cfg.Monitor.Interval),
		monitor.WithDuration(cfg.Monitor.Duration),
		monitor.WithFilter(cfg.Monitor.Process),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var summary *monitor.RunSummary

	var g run.Group
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	g.Add(func() error {
		s, err := sampler.Run(ctx)
		summary = s
		return err
	}, func(error) {
		cancel()
	})

	if ptr.Deref(cfg.Exporter.Prometheus.Enabled, false) {
		registry := prometheus.NewRegistry()
		registry.MustRegister(exporter.NewCollector(sampler))

		server := exporter.NewMetricsServer(cfg.Exporter.Prometheus.ListenAddress, registry)
		g.Add(func() error {
			logger.Info("Serving live metrics", "address", cfg.Exporter.Prometheus.ListenAddress)
			if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}, func(error) {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = server.Shutdown(shutdownCtx)
		})
	}

	if err := g.Run(); err != nil {
		// An interrupt signal is the documented way to stop a run early;
		// the summary built from samples collected so far is still valid.
		var sigErr run.SignalError
		if !errors.As(err, &sigErr) {
			return err
		}
		logger.Info("Run interrupted", "signal", sigErr.Signal)
	}

	if summary == nil {
		return errors.New("run produced no summary")
	}

	return report(cfg, reader, sampler, summary, logger)
}

// report emits the human-readable summary and saves the raw sample log.
func report(cfg *config.Config, reader device.GPUReader, sampler *monitor.Sampler, summary *monitor.RunSummary, logger *slog.Logger) error {
	deviceName, err := reader.DeviceName()
	if err != nil {
		deviceName = "unknown"
	}

	stdout := exporter.NewStdoutExporter(os.Stdout)
	if err := stdout.Export(deviceName, summary); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	path, err := exporter.SaveSamples(cfg.Exporter.CSV.Dir, time.Now(), sampler.Ledger().Samples())
	if err != nil {
		return fmt.Errorf("failed to save sample log: %w", err)
	}
	logger.Info("Saved sample log", "path", path)

	return nil
}

// newReader creates the configured snapshot source.
func newReader(cfg *config.Config, logger *slog.Logger) (device.GPUReader, error) {
	switch cfg.GPU.Type {
	case config.GPUTypeFake:
		return device.NewFakeGPUReader(
			device.WithFakeLogger(logger),
			device.WithFakePowerBase(cfg.Dev.FakeGpuReader.PowerBase),
			device.WithFakePowerRange(cfg.Dev.FakeGpuReader.PowerRange),
		), nil
	case config.GPUTypeNVML:
		return device.NewNVMLGPUReader(device.NVMLGPUReaderOpts{
			Logger:      logger,
			DeviceIndex: cfg.GPU.Device,
		}), nil
	default:
		return nil, fmt.Errorf("unknown GPU reader type %q", cfg.GPU.Type)
	}
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
