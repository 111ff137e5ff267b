package io

import (
	"context"
	"fmt"
	"io/fs"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/slok/tasktrack/internal/model"
)

// ConfigYAMLRepository loads tracker configuration from YAML files.
type ConfigYAMLRepository struct {
	fs fs.FS
}

// NewConfigYAMLRepository creates a new YAML config repository.
func NewConfigYAMLRepository(filesystem fs.FS) *ConfigYAMLRepository {
	return &ConfigYAMLRepository{fs: filesystem}
}

// GetConfig loads a tracker configuration from a YAML file. The settings
// missing on the file are taken from base. The result is validated.
func (r *ConfigYAMLRepository) GetConfig(ctx context.Context, path string, base model.TrackerConfig) (model.TrackerConfig, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.TrackerConfig{}, fmt.Errorf("reading config file: %w", err)
	}

	if ctx.Err() != nil {
		return model.TrackerConfig{}, ctx.Err()
	}

	var cfg TrackerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return model.TrackerConfig{}, fmt.Errorf("parsing YAML: %w", err)
	}

	mcfg, err := cfg.toModel(base)
	if err != nil {
		return model.TrackerConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := mcfg.Validate(); err != nil {
		return model.TrackerConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return mcfg, nil
}

// TrackerConfig represents the YAML structure for the tracker configuration.
type TrackerConfig struct {
	BatchSize       *int           `yaml:"batch_size,omitempty"`
	Steps           *int           `yaml:"steps,omitempty"`
	Duration        DurationConfig `yaml:"duration,omitempty"`
	FailureChance   *float64       `yaml:"failure_chance,omitempty"`
	PublishInterval string         `yaml:"publish_interval,omitempty"`
}

// DurationConfig represents the YAML structure for the simulated task duration range.
type DurationConfig struct {
	Min string `yaml:"min,omitempty"`
	Max string `yaml:"max,omitempty"`
}

func (c TrackerConfig) toModel(base model.TrackerConfig) (model.TrackerConfig, error) {
	cfg := base

	if c.BatchSize != nil {
		cfg.BatchSize = *c.BatchSize
	}
	if c.Steps != nil {
		cfg.Steps = *c.Steps
	}
	if c.FailureChance != nil {
		cfg.FailureChance = *c.FailureChance
	}

	var err error
	if cfg.MinDuration, err = parseDuration(c.Duration.Min, cfg.MinDuration); err != nil {
		return model.TrackerConfig{}, fmt.Errorf("duration.min: %w", err)
	}
	if cfg.MaxDuration, err = parseDuration(c.Duration.Max, cfg.MaxDuration); err != nil {
		return model.TrackerConfig{}, fmt.Errorf("duration.max: %w", err)
	}
	if cfg.PublishInterval, err = parseDuration(c.PublishInterval, cfg.PublishInterval); err != nil {
		return model.TrackerConfig{}, fmt.Errorf("publish_interval: %w", err)
	}

	return cfg, nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}

	return d, nil
}
