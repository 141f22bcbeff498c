package config

import (
	"runtime"
	"time"

	"github.com/mappool/mappool/pkg/errors"
	"github.com/mappool/mappool/pkg/logger"
)

// Config is the configuration of the mappool command line tool.
type Config struct {
	// Pool selects and names the pool under test
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Stress controls the concurrent put/get driver
	Stress StressConfig `yaml:"stress" json:"stress"`

	// Log configures the global logger
	Log logger.Config `yaml:"log" json:"log"`

	// Metrics configures Prometheus export
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
}

// PoolConfig describes the pool to build.
type PoolConfig struct {
	// Name appears in logs and metric labels
	Name string `yaml:"name" json:"name"`
	// Sharded selects a lock-per-shard pool instead of a single lock
	Sharded bool `yaml:"sharded" json:"sharded"`
	// Shards is the shard count when Sharded is set
	Shards int `yaml:"shards" json:"shards"`
}

// StressConfig controls the stress driver.
type StressConfig struct {
	// Workers is the number of goroutines doing puts and gets
	Workers int `yaml:"workers" json:"workers"`
	// Objects is the total number of handles put into the pool
	Objects int `yaml:"objects" json:"objects"`
	// Timeout bounds the whole run
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// MetricsConfig configures Prometheus export.
type MetricsConfig struct {
	// Enabled installs the Prometheus observer on the pool
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Addr serves /metrics when not empty, e.g. ":9090"
	Addr string `yaml:"addr" json:"addr"`
	// Namespace prefixes metric names
	Namespace string `yaml:"namespace" json:"namespace"`
}

// NewConfig returns a configuration with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Name:   "objects",
			Shards: 16,
		},
		Stress: StressConfig{
			Workers: runtime.NumCPU(),
			Objects: 10000,
			Timeout: time.Minute,
		},
		Log: logger.Config{
			Level:       "info",
			Encoding:    "console",
			OutputPaths: []string{"stderr"},
		},
		Metrics: MetricsConfig{
			Namespace: "mappool",
		},
	}
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Pool.Name == "" {
		return errors.New(errors.ErrorTypeConfig, "pool.name is required")
	}
	if c.Pool.Sharded && c.Pool.Shards <= 0 {
		return errors.New(errors.ErrorTypeConfig, "pool.shards must be positive").
			WithDetail("shards", c.Pool.Shards)
	}
	if c.Stress.Workers <= 0 {
		return errors.New(errors.ErrorTypeConfig, "stress.workers must be positive").
			WithDetail("workers", c.Stress.Workers)
	}
	if c.Stress.Objects < 0 {
		return errors.New(errors.ErrorTypeConfig, "stress.objects cannot be negative").
			WithDetail("objects", c.Stress.Objects)
	}
	if c.Stress.Timeout <= 0 {
		return errors.New(errors.ErrorTypeConfig, "stress.timeout must be positive")
	}
	switch c.Log.Encoding {
	case "", "json", "console":
	default:
		return errors.Newf(errors.ErrorTypeConfig, "unknown log encoding %q", c.Log.Encoding)
	}
	return nil
}

// GetWorkers returns the number of workers, ensuring it's at least 1
func (s *StressConfig) GetWorkers() int {
	if s.Workers <= 0 {
		return runtime.NumCPU()
	}
	return s.Workers
}
