package app

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	decodeapp "github.com/cospas-sarsat/beacon-core/cmd/beacon-decode/app"
	"github.com/cospas-sarsat/beacon-core/internal/config"
)

// Config is the beacon-stream CLI configuration: a pipeline block
// identical to beacon-decode's, an input source, and the websocket
// listen address in place of a file/stdout sink.
type Config struct {
	Settings  decodeapp.Settings        `yaml:"settings"`
	Pipeline  *config.Config            `yaml:"pipeline"`
	Input     decodeapp.InputConfig     `yaml:"input"`
	Listen    ListenConfig              `yaml:"listen"`
	Telemetry decodeapp.TelemetryConfig `yaml:"telemetry"`
}

// ListenConfig is the websocket server's bind address.
type ListenConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig mirrors beacon-decode's defaults, substituting a
// websocket listener for the file/stdout sink.
func DefaultConfig() *Config {
	return &Config{
		Settings: decodeapp.Settings{LogLevel: "info"},
		Pipeline: config.DefaultConfig(),
		Input: decodeapp.InputConfig{
			Path:         "-",
			Format:       decodeapp.InputInterleavedFloat32,
			ChunkSamples: 4096,
		},
		Listen: ListenConfig{Addr: ":8089"},
	}
}

// LoadConfig reads and validates a YAML configuration file, the same
// division of responsibility as beacon-decode's LoadConfig.
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
	if cfg.Listen.Addr == "" {
		return nil, fmt.Errorf("listen.addr must not be empty")
	}
	return cfg, nil
}
