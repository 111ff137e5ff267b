package runner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/storage"
)

// RunnerConfig is the configuration for the task runner.
type RunnerConfig struct {
	Repository storage.Repository
	Tracker    model.TrackerConfig
	// RandFloat returns a random number in [0, 1), used for durations and failures.
	RandFloat func() float64
	Logger    log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if err := c.Tracker.Validate(); err != nil {
		return fmt.Errorf("invalid tracker config: %w", err)
	}

	if c.RandFloat == nil {
		c.RandFloat = rand.Float64
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "runner.Runner"})

	return nil
}

// Runner simulates the execution of tasks, reporting their progress to the repository.
type Runner struct {
	repo          storage.Repository
	steps         int
	minDuration   time.Duration
	maxDuration   time.Duration
	failureChance float64
	randFloat     func() float64
	logger        log.Logger
}

// NewRunner creates a new task runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		repo:          cfg.Repository,
		steps:         cfg.Tracker.Steps,
		minDuration:   cfg.Tracker.MinDuration,
		maxDuration:   cfg.Tracker.MaxDuration,
		failureChance: cfg.Tracker.FailureChance,
		randFloat:     cfg.RandFloat,
		logger:        cfg.Logger,
	}, nil
}

// Run runs a single task from pending to a terminal state. It doesn't return
// anything, all the outcomes are stored on the task state. A simulated failure
// is a regular outcome, not an error.
func (r *Runner) Run(ctx context.Context, ref model.TaskRef) {
	logger := r.logger.WithValues(log.Kv{"batch-id": ref.BatchID, "task-id": ref.TaskID})

	if !r.update(ctx, logger, ref, model.StartTask()) {
		return
	}

	total := r.duration()
	stepDelay := total / time.Duration(r.steps)
	logger.Debugf("Task started, will take %s", total)

	for i := 1; i <= r.steps; i++ {
		if !sleep(ctx, stepDelay) {
			logger.Debugf("Task run cancelled at step %d", i)
			return
		}

		// 100 is only reached when the task completes.
		progress := int(math.Round(float64(i) / float64(r.steps) * 100))
		progress = min(progress, 99)
		if !r.update(ctx, logger, ref, model.SetProgress(progress)) {
			return
		}
	}

	if r.randFloat() < r.failureChance {
		msg := fmt.Sprintf("simulated failure for task %d", ref.TaskID)
		if r.update(ctx, logger, ref, model.FailTask(msg)) {
			logger.Debugf("Task failed: %s", msg)
		}
		return
	}

	if r.update(ctx, logger, ref, model.CompleteTask()) {
		logger.Debugf("Task completed")
	}
}

// update returns false when the run should not continue.
func (r *Runner) update(ctx context.Context, logger log.Logger, ref model.TaskRef, m model.TaskMutator) bool {
	err := r.repo.UpdateTask(ctx, ref, m)
	switch {
	case err == nil:
		return true
	case errors.Is(err, model.ErrUnknownTask):
		// The batch has been reset, our writes are moot.
		logger.Debugf("Task no longer in the live batch, stopping run")
	case ctx.Err() != nil:
		logger.Debugf("Task run cancelled")
	default:
		logger.Warningf("Could not update task: %s", err)
	}

	return false
}

func (r *Runner) duration() time.Duration {
	spread := r.maxDuration - r.minDuration
	return r.minDuration + time.Duration(r.randFloat()*float64(spread))
}

// sleep waits for d or until the context is done, returns false on the latter.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
