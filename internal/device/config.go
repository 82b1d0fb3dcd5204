package device

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the modeled device's load-time parameters.
const (
	DefaultQuantum = 4000
	DefaultQset    = 1000
	DefaultCount   = 4
)

// Config holds the load-time parameters of a device set. Zero fields are
// filled from the defaults; geometry is fixed for the registry's lifetime.
type Config struct {
	// Quantum is the buffer size in bytes for every device.
	Quantum int `yaml:"quantum"`

	// Qset is the number of buffer slots per chain node.
	Qset int `yaml:"qset"`

	// Count is the number of independent devices to create.
	Count int `yaml:"count"`

	// MaxBytes caps the chain memory of each device. Zero is unlimited.
	MaxBytes int64 `yaml:"max_bytes"`
}

// DefaultConfig returns the default device configuration.
func DefaultConfig() Config {
	return Config{
		Quantum: DefaultQuantum,
		Qset:    DefaultQset,
		Count:   DefaultCount,
	}
}

// withDefaults fills zero fields from the package defaults.
func (c Config) withDefaults() Config {
	if c.Quantum == 0 {
		c.Quantum = DefaultQuantum
	}
	if c.Qset == 0 {
		c.Qset = DefaultQset
	}
	if c.Count == 0 {
		c.Count = DefaultCount
	}
	return c
}

func (c Config) validate() error {
	if c.Quantum <= 0 {
		return fmt.Errorf("quantum must be positive, got %d", c.Quantum)
	}
	if c.Qset <= 0 {
		return fmt.Errorf("qset must be positive, got %d", c.Qset)
	}
	if c.Count <= 0 {
		return fmt.Errorf("count must be positive, got %d", c.Count)
	}
	if c.MaxBytes < 0 {
		return fmt.Errorf("max_bytes must not be negative, got %d", c.MaxBytes)
	}
	return nil
}

// LoadConfig reads a YAML device configuration. Unknown fields are
// rejected to catch typos; omitted fields get the defaults.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}
