// Package config loads the runtime configuration of a supervisor
// controller: where the simulator listens, how fast the simulation steps,
// and how logging, metrics, and tracing behave.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "32ms" as well as from plain nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if value.ShortTag() != "!!int" && value.Decode(&s) == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("config: invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("config: invalid duration: %w", err)
	}
	*d = Duration(n)
	return nil
}

// Std converts to the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the full controller configuration.
type Config struct {
	Simulator SimulatorConfig `yaml:"simulator"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// SimulatorConfig locates the simulator and sets the step cadence.
type SimulatorConfig struct {
	// Address is the TCP address the simulator listens on.
	// Default: localhost:1234
	Address string `yaml:"address"`

	// BasicTimeStep is the simulation step duration.
	// Default: 32ms
	BasicTimeStep Duration `yaml:"basic_time_step"`

	// Supervisor reports whether the controller was granted the
	// supervisor role in the world file. Default: true
	Supervisor *bool `yaml:"supervisor"`
}

// LogConfig mirrors the logging package's options.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address"` // default :9090
}

// TracingConfig toggles OTel span export for flush round trips.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Exporter    string  `yaml:"exporter"` // stdout or otlp
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	supervisor := true
	return Config{
		Simulator: SimulatorConfig{
			Address:       "localhost:1234",
			BasicTimeStep: Duration(32 * time.Millisecond),
			Supervisor:    &supervisor,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled:       false,
			ListenAddress: ":9090",
		},
		Tracing: TracingConfig{
			Exporter:    "stdout",
			SampleRatio: 1.0,
		},
	}
}

// Load reads a YAML file, fills defaults, applies environment overrides,
// and validates the result. An empty path yields the defaulted,
// env-overridden configuration.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv layers SUPERVISOR_* environment variables over the file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("SUPERVISOR_SIMULATOR_ADDRESS"); v != "" {
		c.Simulator.Address = v
	}
	if v := os.Getenv("SUPERVISOR_BASIC_TIME_STEP"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Simulator.BasicTimeStep = Duration(d)
		}
	}
	if v := os.Getenv("SUPERVISOR_ROLE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Simulator.Supervisor = &b
		}
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("SUPERVISOR_METRICS_LISTEN"); v != "" {
		c.Metrics.Enabled = true
		c.Metrics.ListenAddress = v
	}
	if v := os.Getenv("SUPERVISOR_TRACING_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Tracing.Enabled = b
		}
	}
	if v := os.Getenv("SUPERVISOR_TRACING_EXPORTER"); v != "" {
		c.Tracing.Exporter = v
	}
	if v := os.Getenv("SUPERVISOR_OTLP_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
}

func (c *Config) applyDefaults() {
	d := Default()
	if c.Simulator.Address == "" {
		c.Simulator.Address = d.Simulator.Address
	}
	if c.Simulator.BasicTimeStep <= 0 {
		c.Simulator.BasicTimeStep = d.Simulator.BasicTimeStep
	}
	if c.Simulator.Supervisor == nil {
		c.Simulator.Supervisor = d.Simulator.Supervisor
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Metrics.ListenAddress == "" {
		c.Metrics.ListenAddress = d.Metrics.ListenAddress
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = d.Tracing.Exporter
	}
	if c.Tracing.SampleRatio <= 0 || c.Tracing.SampleRatio > 1 {
		c.Tracing.SampleRatio = d.Tracing.SampleRatio
	}
}

func (c *Config) validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Log.Format)
	}
	switch c.Tracing.Exporter {
	case "stdout", "otlp", "otlpgrpc":
	default:
		return fmt.Errorf("config: unsupported tracing exporter %q", c.Tracing.Exporter)
	}
	return nil
}
