// Package config loads and validates the AccessBridge configuration,
// including the versioned transient-error signature list used by the
// recovery classifier.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/accessbridge/accessbridge/pkg/telemetry"
)

// HostConfig describes how to launch the automation host process.
type HostConfig struct {
	// Command is the host executable and its arguments.
	Command []string `yaml:"command" validate:"min=1,dive,required"`

	// StartupTimeout bounds the wait for the host's READY message.
	StartupTimeout telemetry.Duration `yaml:"startup_timeout"`

	// CommandTimeout bounds a single host command.
	CommandTimeout telemetry.Duration `yaml:"command_timeout"`
}

// RecoveryConfig controls the transient-error signature list.
type RecoveryConfig struct {
	// SignaturesPath points at an override signature file. Empty means the
	// embedded defaults.
	SignaturesPath string `yaml:"signatures_path"`

	// WatchSignatures reloads the override file on change.
	WatchSignatures bool `yaml:"watch_signatures"`
}

// Config is the full AccessBridge configuration.
type Config struct {
	Logging  telemetry.LoggingConfig `yaml:"logging"`
	Metrics  telemetry.MetricsConfig `yaml:"metrics"`
	Tracing  telemetry.TracingConfig `yaml:"tracing"`
	Host     HostConfig              `yaml:"host" validate:"required"`
	Recovery RecoveryConfig          `yaml:"recovery"`
}

// Default returns the built-in configuration. The host command defaults to
// the simulator so a checkout works without the desktop application.
func Default() *Config {
	return &Config{
		Logging: telemetry.DefaultLoggingConfig(),
		Metrics: telemetry.DefaultMetricsConfig(),
		Tracing: telemetry.DefaultTracingConfig(),
		Host: HostConfig{
			Command:        []string{"hostsim"},
			StartupTimeout: telemetry.Duration(15 * time.Second),
			CommandTimeout: telemetry.Duration(120 * time.Second),
		},
	}
}

// Load reads a YAML config file, applies defaults for omitted fields, and
// validates the result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Host.StartupTimeout < 0 || c.Host.CommandTimeout < 0 {
		return fmt.Errorf("invalid config: timeouts must not be negative")
	}
	return nil
}
