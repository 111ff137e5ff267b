package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	batch  *model.Batch
	mu     sync.RWMutex
	logger log.Logger
}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		logger: cfg.Logger,
	}, nil
}

// GetSnapshot returns a copy of the live batch.
func (r *Repository) GetSnapshot(ctx context.Context) (*model.Batch, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.batch == nil {
		return nil, fmt.Errorf("live batch: %w", model.ErrNotFound)
	}

	// Return a copy
	batchCopy := r.batch.Copy()
	return &batchCopy, nil
}

// UpdateTask applies a mutation to a single task of the live batch.
func (r *Repository) UpdateTask(ctx context.Context, ref model.TaskRef, mutator model.TaskMutator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.batch == nil || !r.batch.Has(ref) {
		return fmt.Errorf("task %s: %w", ref, model.ErrUnknownTask)
	}

	task, err := model.ApplyMutator(r.batch.Tasks[ref.TaskID], mutator)
	if err != nil {
		return fmt.Errorf("could not mutate task %s: %w", ref, err)
	}
	r.batch.Tasks[ref.TaskID] = task

	return nil
}

// ReplaceBatch swaps the live batch.
func (r *Repository) ReplaceBatch(ctx context.Context, b model.Batch) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	// Store a copy so the caller can't mutate the live state.
	batchCopy := b.Copy()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.batch = &batchCopy
	r.logger.Debugf("Replaced live batch in repository: %s (%d tasks)", b.ID, len(b.Tasks))

	return nil
}
