// SPDX-FileCopyrightText: 2026 The Wattscope Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"k8s.io/utils/ptr"
)

// GPU reader types
const (
	GPUTypeNVML = "nvml"
	GPUTypeFake = "fake"
)

// Config represents the complete application configuration
type (
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	// Monitor holds the sampling loop settings
	Monitor struct {
		Duration time.Duration `yaml:"duration"` // Total run duration
		Interval time.Duration `yaml:"interval"` // Target sampling interval
		Process  string        `yaml:"process"`  // Optional process name filter (substring)
	}

	// GPU selects and configures the snapshot source
	GPU struct {
		Type   string `yaml:"type"`   // "nvml" or "fake"
		Device int    `yaml:"device"` // GPU device index to monitor
	}

	// Development mode settings; only used when GPU.Type is "fake"
	Dev struct {
		FakeGpuReader struct {
			PowerBase  float64 `yaml:"powerBase"`  // Base power draw in watts
			PowerRange float64 `yaml:"powerRange"` // Power variation range in watts
		} `yaml:"fake-gpu-reader"`
	}

	CSVExporter struct {
		Dir string `yaml:"dir"` // Directory the sample log is written to
	}

	PrometheusExporter struct {
		Enabled       *bool  `yaml:"enabled"`
		ListenAddress string `yaml:"listenAddress"`
	}

	Exporter struct {
		CSV        CSVExporter        `yaml:"csv"`
		Prometheus PrometheusExporter `yaml:"prometheus"`
	}

	Config struct {
		Log      Log      `yaml:"log"`
		Monitor  Monitor  `yaml:"monitor"`
		GPU      GPU      `yaml:"gpu"`
		Exporter Exporter `yaml:"exporter"`
		Dev      Dev      `yaml:"dev"` // WARN: do not expose dev settings as flags
	}
)

const (
	// Flags
	LogLevelFlag  = "log.level"
	LogFormatFlag = "log.format"

	MonitorDurationFlag = "duration"
	MonitorIntervalFlag = "interval"
	MonitorProcessFlag  = "process"

	GPUTypeFlag   = "gpu.type"
	GPUDeviceFlag = "gpu.device"

	ExporterCSVDirFlag            = "exporter.csv.dir"
	ExporterPrometheusEnabledFlag = "exporter.prometheus"
	ExporterPrometheusListenFlag  = "exporter.prometheus.listen-address"

// WARN: dev settings shouldn't be exposed as flags as flags are intended for end users
)

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	cfg := &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Monitor: Monitor{
			Duration: 60 * time.Second,
			Interval: 10 * time.Millisecond,
		},
		GPU: GPU{
			Type:   GPUTypeNVML,
			Device: 0,
		},
		Exporter: Exporter{
			CSV: CSVExporter{
				Dir: ".",
			},
			Prometheus: PrometheusExporter{
				Enabled:       ptr.To(false),
				ListenAddress: ":28284",
			},
		},
	}

	cfg.Dev.FakeGpuReader.PowerBase = 100.0
	cfg.Dev.FakeGpuReader.PowerRange = 50.0
	return cfg
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromFile loads configuration from a file
func FromFile(filePath string) (cfg *Config, retErr error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil && retErr == nil {
			retErr = err
		}
	}()

	return Load(file)
}

type ConfigUpdaterFn func(*Config) error

// RegisterFlags registers command-line flags with kingpin app
// and returns ConfigUpdaterFn that updates the config from parsed flags
// as command line arguments override config file settings
func RegisterFlags(app *kingpin.Application) ConfigUpdaterFn {
	// track flags that were explicitly set
	flagsSet := map[string]bool{}

	app.PreAction(func(ctx *kingpin.ParseContext) error {
		// Clear the map in case this function is called multiple times
		flagsSet = map[string]bool{}

		for _, element := range ctx.Elements {
			if flag, ok := element.Clause.(*kingpin.FlagClause); ok && element.Value != nil {
				flagsSet[flag.Model().Name] = true
			}
		}
		return nil
	})

	// Logging
	logLevel := app.Flag(LogLevelFlag, "Logging level: debug, info, warn, error").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := app.Flag(LogFormatFlag, "Logging format: text or json").Default("text").Enum("text", "json")

	// monitor
	duration := app.Flag(MonitorDurationFlag, "Total run duration").Short('d').Default("60s").Duration()
	interval := app.Flag(MonitorIntervalFlag, "Target sampling interval").Default("10ms").Duration()
	process := app.Flag(MonitorProcessFlag, "Track only processes whose name contains this string (case-insensitive)").Short('p').String()

	// gpu
	gpuType := app.Flag(GPUTypeFlag, "GPU reader type (nvml or fake)").Default(GPUTypeNVML).Enum(GPUTypeNVML, GPUTypeFake)
	gpuDevice := app.Flag(GPUDeviceFlag, "GPU device index to monitor").Default("0").Int()

	// exporters
	csvDir := app.Flag(ExporterCSVDirFlag, "Directory the sample log is written to").Default(".").String()
	prometheusEnabled := app.Flag(ExporterPrometheusEnabledFlag, "Expose live metrics on a Prometheus endpoint during the run").Default("false").Bool()
	prometheusListen := app.Flag(ExporterPrometheusListenFlag, "Prometheus endpoint listen address").Default(":28284").String()

	return func(cfg *Config) error {
		if flagsSet[LogLevelFlag] {
			cfg.Log.Level = *logLevel
		}

		if flagsSet[LogFormatFlag] {
			cfg.Log.Format = *logFormat
		}

		if flagsSet[MonitorDurationFlag] {
			cfg.Monitor.Duration = *duration
		}

		if flagsSet[MonitorIntervalFlag] {
			cfg.Monitor.Interval = *interval
		}

		if flagsSet[MonitorProcessFlag] {
			cfg.Monitor.Process = *process
		}

		if flagsSet[GPUTypeFlag] {
			cfg.GPU.Type = *gpuType
		}

		if flagsSet[GPUDeviceFlag] {
			cfg.GPU.Device = *gpuDevice
		}

		if flagsSet[ExporterCSVDirFlag] {
			cfg.Exporter.CSV.Dir = *csvDir
		}

		if flagsSet[ExporterPrometheusEnabledFlag] {
			cfg.Exporter.Prometheus.Enabled = prometheusEnabled
		}

		if flagsSet[ExporterPrometheusListenFlag] {
			cfg.Exporter.Prometheus.ListenAddress = *prometheusListen
		}

		cfg.sanitize()
		return cfg.Validate()
	}
}

func (c *Config) sanitize() {
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
	c.Monitor.Process = strings.TrimSpace(c.Monitor.Process)
	c.GPU.Type = strings.TrimSpace(c.GPU.Type)
	c.Exporter.CSV.Dir = strings.TrimSpace(c.Exporter.CSV.Dir)
	c.Exporter.Prometheus.ListenAddress = strings.TrimSpace(c.Exporter.Prometheus.ListenAddress)
}

// Validate checks for configuration errors
func (c *Config) Validate() error {
	var errs []string
	{ // log level
		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}
		if _, valid := validLogLevels[c.Log.Level]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
		}
	}
	{ // log format
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if _, valid := validFormats[c.Log.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
		}
	}

	{ // Monitor
		if c.Monitor.Duration <= 0 {
			errs = append(errs, fmt.Sprintf("invalid run duration: %s must be positive", c.Monitor.Duration))
		}
		if c.Monitor.Interval <= 0 {
			errs = append(errs, fmt.Sprintf("invalid sampling interval: %s must be positive", c.Monitor.Interval))
		}
	}

	{ // GPU
		if c.GPU.Type != GPUTypeNVML && c.GPU.Type != GPUTypeFake {
			errs = append(errs, fmt.Sprintf("invalid GPU reader type %q: must be %q or %q", c.GPU.Type, GPUTypeNVML, GPUTypeFake))
		}
		if c.GPU.Device < 0 {
			errs = append(errs, fmt.Sprintf("invalid GPU device index: %d can't be negative", c.GPU.Device))
		}
	}

	{ // CSV exporter
		if c.Exporter.CSV.Dir == "" {
			errs = append(errs, "sample log directory cannot be empty")
		} else if err := isWritableDir(c.Exporter.CSV.Dir); err != nil {
			errs = append(errs, fmt.Sprintf("invalid sample log directory %q: %s", c.Exporter.CSV.Dir, err.Error()))
		}
	}

	{ // Prometheus exporter
		if ptr.Deref(c.Exporter.Prometheus.Enabled, false) {
			if err := validateListenAddress(c.Exporter.Prometheus.ListenAddress); err != nil {
				errs = append(errs, fmt.Sprintf("invalid Prometheus listen address %q: %s", c.Exporter.Prometheus.ListenAddress, err.Error()))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	return nil
}

// isWritableDir checks that files can actually be created under path, by
// probing with a temporary file. A stat alone would let a read-only
// directory pass validation and fail only when the sample log is written.
func isWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory")
	}

	probe, err := os.CreateTemp(path, ".wattscope-*")
	if err != nil {
		return fmt.Errorf("not writable")
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)

	return nil
}

func validateListenAddress(addr string) error {
	if addr == "" {
		return fmt.Errorf("address cannot be empty")
	}

	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address format: %w", err)
	}

	return validatePort(port)
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("port must be numeric, got %s", port)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", portNum)
	}
	return nil
}

func (c *Config) String() string {
	bytes, err := yaml.Marshal(c)
	if err == nil {
		return string(bytes)
	}
	// NOTE: this code path should not happen but if it does (i.e if yaml marshal fails
	// for some reason), manually build the string
	return c.manualString()
}

func (c *Config) manualString() string {
	cfgs := []struct {
		Name  string
		Value string
	}{
		{LogLevelFlag, c.Log.Level},
		{LogFormatFlag, c.Log.Format},
		{MonitorDurationFlag, c.Monitor.Duration.String()},
		{MonitorIntervalFlag, c.Monitor.Interval.String()},
		{MonitorProcessFlag, c.Monitor.Process},
		{GPUTypeFlag, c.GPU.Type},
		{GPUDeviceFlag, fmt.Sprintf("%d", c.GPU.Device)},
		{ExporterCSVDirFlag, c.Exporter.CSV.Dir},
		{ExporterPrometheusEnabledFlag, fmt.Sprintf("%v", ptr.Deref(c.Exporter.Prometheus.Enabled, false))},
		{ExporterPrometheusListenFlag, c.Exporter.Prometheus.ListenAddress},
	}
	sb := strings.Builder{}

	for _, cfg := range cfgs {
		sb.WriteString(cfg.Name)
		sb.WriteString(": ")
		sb.WriteString(cfg.Value)
		sb.WriteString("\n")
	}

	return sb.String()
}
