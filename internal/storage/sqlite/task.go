package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/slok/tasktrack/internal/model"
)

// UpdateTask applies a mutation to a single task of the live batch. Tasks of
// replaced batches are deleted, so stale references don't match any row.
func (r *Repository) UpdateTask(ctx context.Context, ref model.TaskRef, mutator model.TaskMutator) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		SELECT status, progress, error
		FROM tasks
		WHERE batch_id = ? AND task_id = ?
	`

	var current model.TaskState
	err = tx.QueryRowContext(ctx, query, ref.BatchID, ref.TaskID).Scan(&current.Status, &current.Progress, &current.Error)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("task %s: %w", ref, model.ErrUnknownTask)
		}
		return fmt.Errorf("could not query task: %w", err)
	}

	updated, err := model.ApplyMutator(current, mutator)
	if err != nil {
		return fmt.Errorf("could not mutate task %s: %w", ref, err)
	}

	updateQuery := `UPDATE tasks SET status = ?, progress = ?, error = ? WHERE batch_id = ? AND task_id = ?`
	result, err := tx.ExecContext(ctx, updateQuery, updated.Status, updated.Progress, updated.Error, ref.BatchID, ref.TaskID)
	if err != nil {
		return fmt.Errorf("could not update task: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("task %s: %w", ref, model.ErrUnknownTask)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	return nil
}
