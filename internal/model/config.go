package model

import (
	"fmt"
	"time"
)

// MaxBatchSize is the max number of tasks a batch can have.
const MaxBatchSize = 10000

// TrackerConfig is the tuning of the simulated task batches.
type TrackerConfig struct {
	// BatchSize is the number of tasks of each batch.
	BatchSize int
	// Steps is the number of progress updates of each task.
	Steps int
	// MinDuration and MaxDuration are the bounds of the simulated task duration.
	MinDuration time.Duration
	MaxDuration time.Duration
	// FailureChance is the probability [0, 1] of a task to fail.
	FailureChance float64
	// PublishInterval is the interval between status pushes to subscribers.
	PublishInterval time.Duration
}

// DefaultTrackerConfig returns the production tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		BatchSize:       50,
		Steps:           100,
		MinDuration:     30 * time.Second,
		MaxDuration:     120 * time.Second,
		FailureChance:   0.2,
		PublishInterval: 500 * time.Millisecond,
	}
}

// FastTrackerConfig returns the tracker configuration with short task durations,
// useful while developing against the API.
func FastTrackerConfig() TrackerConfig {
	c := DefaultTrackerConfig()
	c.MinDuration = 5 * time.Second
	c.MaxDuration = 10 * time.Second
	return c
}

// Validate validates the tracker configuration.
func (c TrackerConfig) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0: %w", ErrNotValid)
	}

	if c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch size can't be greater than %d: %w", MaxBatchSize, ErrNotValid)
	}

	if c.Steps <= 0 {
		return fmt.Errorf("steps must be greater than 0: %w", ErrNotValid)
	}

	if c.MinDuration < 0 {
		return fmt.Errorf("min duration can't be negative: %w", ErrNotValid)
	}

	if c.MaxDuration < c.MinDuration {
		return fmt.Errorf("max duration can't be lower than min duration: %w", ErrNotValid)
	}

	if c.FailureChance < 0 || c.FailureChance > 1 {
		return fmt.Errorf("failure chance must be in [0, 1]: %w", ErrNotValid)
	}

	if c.PublishInterval <= 0 {
		return fmt.Errorf("publish interval must be greater than 0: %w", ErrNotValid)
	}

	return nil
}
