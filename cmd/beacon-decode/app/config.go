package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cospas-sarsat/beacon-core/internal/config"
)

// Config is the on-disk configuration for the beacon-decode CLI. The core
// pipeline (internal/config.Config) deliberately has no file loader
// (spec.md §1 Non-goals); this is where that exclusion is satisfied by an
// external collaborator instead, following the teacher's cmd/sweeper/app
// convention of keeping the loader outside the package it configures.
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Pipeline  *config.Config  `yaml:"pipeline"`
	Input     InputConfig     `yaml:"input"`
	Output    OutputConfig    `yaml:"output"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Settings holds CLI-wide settings.
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// InputFormat selects how raw bytes from Input.Path are parsed into
// complex samples.
type InputFormat string

const (
	// InputInterleavedFloat32 is pairs of little-endian float32 (I, Q).
	InputInterleavedFloat32 InputFormat = "f32"
	// InputInterleavedInt16 is pairs of little-endian int16 (I, Q), the
	// common RTL-SDR/HackRF capture format, scaled to [-1, 1).
	InputInterleavedInt16 InputFormat = "s16"
)

// InputConfig describes the IQ sample source.
type InputConfig struct {
	// Path to a capture file, or "-" for stdin.
	Path   string      `yaml:"path"`
	Format InputFormat `yaml:"format"`
	// ChunkSamples bounds the size of each feed() call into the detector
	// (spec.md §5: stages are invoked with a bounded-size input chunk).
	ChunkSamples int `yaml:"chunkSamples"`
}

// OutputConfig describes where decoded BeaconRecords are written.
type OutputConfig struct {
	// Path to a file, or "-"/"" for stdout. Records are newline-delimited
	// JSON, one per line.
	Path string `yaml:"path"`
}

// TelemetryConfig optionally attaches a fixed receiving-station position
// to every decoded record (internal/telemetry.StaticProvider).
type TelemetryConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Latitude  *float64 `yaml:"latitude"`
	Longitude *float64 `yaml:"longitude"`
	Altitude  *float64 `yaml:"altitude"`
}

// MetricsConfig controls the optional Prometheus HTTP exporter.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// DefaultConfig returns the nominal CLI configuration: pipeline defaults,
// stdin input as interleaved float32, stdout output, no telemetry, no
// metrics server.
func DefaultConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: "info"},
		Pipeline: config.DefaultConfig(),
		Input: InputConfig{
			Path:         "-",
			Format:       InputInterleavedFloat32,
			ChunkSamples: 4096,
		},
		Output: OutputConfig{Path: "-"},
	}
}

// LoadConfig reads and validates a YAML configuration file, following the
// same caller-sources-the-bytes division of responsibility as
// internal/config.ParseConfig: this function owns the filesystem read,
// ParseConfig owns the YAML decode and validation of the pipeline block.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration file: %w", err)
	}
	if err := cfg.Pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pipeline configuration: %w", err)
	}
	if cfg.Input.ChunkSamples <= 0 {
		return nil, fmt.Errorf("input.chunkSamples must be positive: %d", cfg.Input.ChunkSamples)
	}
	return cfg, nil
}
