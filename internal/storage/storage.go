package storage

import (
	"context"

	"github.com/slok/tasktrack/internal/model"
)

// Repository is the interface for the task batch persistence. It's the only
// owner of the live batch, all reads and writes go through it.
type Repository interface {
	// GetSnapshot returns a copy of the live batch consistent at a single instant.
	// Returns model.ErrNotFound when no batch has been installed yet.
	GetSnapshot(ctx context.Context) (*model.Batch, error)
	// UpdateTask applies the mutator to a single task atomically. Returns
	// model.ErrUnknownTask when the reference doesn't belong to the live batch.
	UpdateTask(ctx context.Context, ref model.TaskRef, mutator model.TaskMutator) error
	// ReplaceBatch atomically swaps the live batch.
	ReplaceBatch(ctx context.Context, b model.Batch) error
}
