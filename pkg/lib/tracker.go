package lib

import (
	"context"
	"fmt"
	"net/http"

	"github.com/slok/tasktrack/internal/api"
	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/orchestrator"
	"github.com/slok/tasktrack/internal/publisher"
	"github.com/slok/tasktrack/internal/runner"
	"github.com/slok/tasktrack/internal/storage"
	"github.com/slok/tasktrack/internal/storage/memory"
	"github.com/slok/tasktrack/internal/storage/sqlite"
)

// Config configures the SDK tracker.
//
// All fields are optional. An empty Config{} uses the memory store and the
// default tracker configuration.
type Config struct {
	// Storage selects the task record store.
	// Default: [StorageMemory].
	Storage StorageType

	// DBPath is the SQLite database path, only used with [StorageSQLite].
	// Default: in-memory database.
	DBPath string

	// Tracker tunes the simulated tasks.
	// Default: [DefaultTrackerConfig].
	Tracker *TrackerConfig

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Storage == "" {
		c.Storage = StorageMemory
	}

	if c.Tracker == nil {
		tc := DefaultTrackerConfig()
		c.Tracker = &tc
	}

	if err := toInternalTrackerConfig(*c.Tracker).Validate(); err != nil {
		return err
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Tracker runs simulated task batches in process.
//
// Create a Tracker with [New] and release its resources with [Tracker.Close].
// A Tracker is safe for concurrent use.
type Tracker struct {
	orch    *orchestrator.Orchestrator
	pub     *publisher.Publisher
	logger  log.Logger
	closeFn func() error
}

// New creates a new tracker with a fresh batch of pending tasks.
//
// The caller must call [Tracker.Close] when done to stop the running tasks:
//
//	tracker, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    return err
//	}
//	defer tracker.Close()
func New(ctx context.Context, cfg Config) (*Tracker, error) {
	if err := cfg.defaults(); err != nil {
		return nil, mapError(fmt.Errorf("invalid config: %w", err))
	}
	tracker := toInternalTrackerConfig(*cfg.Tracker)

	repo, closeRepo, err := newRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}

	r, err := runner.NewRunner(runner.RunnerConfig{
		Repository: repo,
		Tracker:    tracker,
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = closeRepo()
		return nil, fmt.Errorf("could not create runner: %w", err)
	}

	orch, err := orchestrator.NewOrchestrator(orchestrator.OrchestratorConfig{
		Repository: repo,
		Runner:     r,
		BatchSize:  tracker.BatchSize,
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = closeRepo()
		return nil, fmt.Errorf("could not create orchestrator: %w", err)
	}

	if err := orch.ResetBatch(ctx); err != nil {
		_ = closeRepo()
		return nil, mapError(fmt.Errorf("could not install initial batch: %w", err))
	}

	pub, err := publisher.NewPublisher(publisher.PublisherConfig{
		Repository: repo,
		Interval:   tracker.PublishInterval,
		Logger:     cfg.Logger,
	})
	if err != nil {
		_ = closeRepo()
		return nil, fmt.Errorf("could not create publisher: %w", err)
	}

	return &Tracker{
		orch:   orch,
		pub:    pub,
		logger: cfg.Logger,
		closeFn: func() error {
			orch.Stop()
			return closeRepo()
		},
	}, nil
}

func newRepository(ctx context.Context, cfg Config) (storage.Repository, func() error, error) {
	switch cfg.Storage {
	case StorageMemory:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: cfg.Logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create repository: %w", err)
		}
		return repo, func() error { return nil }, nil
	case StorageSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: cfg.DBPath,
			Logger: cfg.Logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create repository: %w", err)
		}
		return repo, repo.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported storage type: %s: %w", cfg.Storage, ErrNotValid)
	}
}

// Close stops the running tasks and releases the store.
// After Close returns, the tracker must not be used.
func (t *Tracker) Close() error {
	if t.closeFn != nil {
		return t.closeFn()
	}
	return nil
}

// Start starts every pending task of the live batch and returns how many were
// started, without waiting for them. It fails with [ErrBatchAlreadyRunning]
// while tasks are running.
func (t *Tracker) Start(ctx context.Context) (int, error) {
	n, err := t.orch.StartBatch(ctx)
	if err != nil {
		return 0, mapError(err)
	}

	return n, nil
}

// Reset replaces the live batch with a fresh one, running tasks are abandoned.
func (t *Tracker) Reset(ctx context.Context) error {
	return mapError(t.orch.ResetBatch(ctx))
}

// Wait blocks until the started tasks finish or the context is done.
func (t *Tracker) Wait(ctx context.Context) error {
	return t.orch.Wait(ctx)
}

// Status returns the current status of the live batch.
func (t *Tracker) Status(ctx context.Context) (*BatchStatus, error) {
	s, err := t.pub.Status(ctx)
	if err != nil {
		return nil, mapError(err)
	}

	status := fromInternalBatchStatus(*s)
	return &status, nil
}

// Watch calls fn with the batch status right away and then on every publish
// interval. It blocks until the context is done or fn returns an error, the
// error returned by fn is not returned by Watch.
func (t *Tracker) Watch(ctx context.Context, fn func(BatchStatus) error) error {
	sub := publisher.SubscriberFunc(func(_ context.Context, s model.BatchStatus) error {
		return fn(fromInternalBatchStatus(s))
	})

	return t.pub.Subscribe(ctx, sub)
}

// Handler returns an HTTP handler exposing the tracker with the same API as
// the tasktrack server. When no origins are passed the default dashboard
// origin is allowed.
func (t *Tracker) Handler(allowedOrigins ...string) (http.Handler, error) {
	h, err := api.NewHandler(api.HandlerConfig{
		Orchestrator:   t.orch,
		Publisher:      t.pub,
		AllowedOrigins: allowedOrigins,
		Logger:         t.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create handler: %w", err)
	}

	return h, nil
}
