package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/storage"
	"github.com/slok/tasktrack/internal/storage/sqlite"
)

var _ storage.Repository = &sqlite.Repository{}

func newRepo(t *testing.T, inMemory bool) *sqlite.Repository {
	t.Helper()

	dbPath := ""
	if !inMemory {
		dbPath = filepath.Join(t.TempDir(), "test.db")
	}

	repo, err := sqlite.NewRepository(context.Background(), sqlite.RepositoryConfig{
		DBPath: dbPath,
		Logger: log.Noop,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRepositorySnapshot(t *testing.T) {
	createdAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)

	tests := map[string]struct {
		inMemory bool
		batches  []model.Batch
		expBatch *model.Batch
		expErr   error
	}{
		"Without batch, getting the snapshot should fail": {
			expErr: model.ErrNotFound,
		},

		"Without batch, getting the snapshot should fail (in memory)": {
			inMemory: true,
			expErr:   model.ErrNotFound,
		},

		"A replaced batch should be returned on the snapshot": {
			batches: []model.Batch{model.NewBatch("b1", 3, createdAt)},
			expBatch: &model.Batch{
				ID:        "b1",
				CreatedAt: createdAt,
				Tasks: []model.TaskState{
					{Status: model.TaskStatusPending},
					{Status: model.TaskStatusPending},
					{Status: model.TaskStatusPending},
				},
			},
		},

		"A replaced batch should be returned on the snapshot (in memory)": {
			inMemory: true,
			batches:  []model.Batch{model.NewBatch("b1", 2, createdAt)},
			expBatch: &model.Batch{
				ID:        "b1",
				CreatedAt: createdAt,
				Tasks: []model.TaskState{
					{Status: model.TaskStatusPending},
					{Status: model.TaskStatusPending},
				},
			},
		},

		"Replacing a batch multiple times should keep only the latest": {
			batches: []model.Batch{
				{
					ID:        "b1",
					CreatedAt: createdAt,
					Tasks: []model.TaskState{
						{Status: model.TaskStatusCompleted, Progress: 100},
						{Status: model.TaskStatusFailed, Progress: 33, Error: "boom"},
					},
				},
				model.NewBatch("b2", 1, createdAt.Add(time.Minute)),
			},
			expBatch: &model.Batch{
				ID:        "b2",
				CreatedAt: createdAt.Add(time.Minute),
				Tasks: []model.TaskState{
					{Status: model.TaskStatusPending},
				},
			},
		},

		"A batch with mixed states should be stored as is": {
			batches: []model.Batch{
				{
					ID:        "b1",
					CreatedAt: createdAt,
					Tasks: []model.TaskState{
						{Status: model.TaskStatusCompleted, Progress: 100},
						{Status: model.TaskStatusFailed, Progress: 33, Error: "boom"},
						{Status: model.TaskStatusInProgress, Progress: 12},
					},
				},
			},
			expBatch: &model.Batch{
				ID:        "b1",
				CreatedAt: createdAt,
				Tasks: []model.TaskState{
					{Status: model.TaskStatusCompleted, Progress: 100},
					{Status: model.TaskStatusFailed, Progress: 33, Error: "boom"},
					{Status: model.TaskStatusInProgress, Progress: 12},
				},
			},
		},

		"Replacing with an invalid batch should fail": {
			batches: []model.Batch{{CreatedAt: createdAt}},
			expErr:  model.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()

			repo := newRepo(t, test.inMemory)

			var err error
			for _, b := range test.batches {
				err = repo.ReplaceBatch(ctx, b)
				if err != nil {
					break
				}
			}

			var got *model.Batch
			if err == nil {
				got, err = repo.GetSnapshot(ctx)
			}

			if test.expErr != nil {
				require.Error(err)
				assert.True(errors.Is(err, test.expErr), "unexpected error: %v", err)
				return
			}

			require.NoError(err)
			assert.Equal(test.expBatch, got)
		})
	}
}

func TestRepositoryPersistsOnFile(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: dbPath})
	require.NoError(err)
	require.NoError(repo.ReplaceBatch(ctx, model.NewBatch("b1", 2, time.Now())))
	require.NoError(repo.Close())

	// Reopening runs the migrations again without changes.
	repo, err = sqlite.NewRepository(ctx, sqlite.RepositoryConfig{DBPath: dbPath})
	require.NoError(err)
	defer repo.Close()

	snap, err := repo.GetSnapshot(ctx)
	require.NoError(err)
	assert.Equal(t, "b1", snap.ID)
	assert.Len(t, snap.Tasks, 2)
}
