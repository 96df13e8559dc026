package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the driver and runtime settings of dagsched
type Config struct {
	// Concurrency is the maximum number of tasks executing at once
	Concurrency int `env:"DAGSCHED_CONCURRENCY" envDefault:"4"`

	// TaskTimeout bounds a single task execution
	TaskTimeout time.Duration `env:"DAGSCHED_TASK_TIMEOUT" envDefault:"5m"`

	// PollInterval is how often the driver re-checks the schedule when no
	// task completion woke it up
	PollInterval time.Duration `env:"DAGSCHED_POLL_INTERVAL" envDefault:"50ms"`

	// ProgressInterval is how often progress is logged; zero disables it
	ProgressInterval time.Duration `env:"DAGSCHED_PROGRESS_INTERVAL" envDefault:"5s"`

	// MetricsAddr is the listen address for the Prometheus endpoint; empty disables it
	MetricsAddr string `env:"DAGSCHED_METRICS_ADDR"`
}

const maxConcurrency = 256

// Load reads configuration from environment variables. Ranges are not
// checked here; callers apply their overrides and then call Validate.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Concurrency < 1 || c.Concurrency > maxConcurrency {
		return fmt.Errorf("concurrency must be between 1 and %d, got %d", maxConcurrency, c.Concurrency)
	}
	if c.TaskTimeout <= 0 {
		return fmt.Errorf("task timeout must be positive, got %v", c.TaskTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", c.PollInterval)
	}
	if c.ProgressInterval < 0 {
		return fmt.Errorf("progress interval cannot be negative, got %v", c.ProgressInterval)
	}
	return nil
}
