package model

import (
	"fmt"
)

// TaskStatus represents the state of a task.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is running.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task finished with an error.
	TaskStatusFailed TaskStatus = "failed"
)

// IsTerminal returns true if the status can't transition anymore.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// Valid returns true if the status is a known one.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed:
		return true
	}
	return false
}

// TaskRef identifies a task inside a specific batch. Task IDs repeat across
// batches, the batch ID is what makes a reference stale after a reset.
type TaskRef struct {
	BatchID string
	TaskID  int
}

func (r TaskRef) String() string { return fmt.Sprintf("%s/%d", r.BatchID, r.TaskID) }

// TaskState is the state of a single task.
type TaskState struct {
	Status   TaskStatus
	Progress int
	// Error is only set when the task failed.
	Error string
}

// Validate validates the task state invariants.
func (t TaskState) Validate() error {
	if !t.Status.Valid() {
		return fmt.Errorf("unknown status %q: %w", t.Status, ErrNotValid)
	}

	if t.Progress < 0 || t.Progress > 100 {
		return fmt.Errorf("progress %d out of range: %w", t.Progress, ErrNotValid)
	}

	switch t.Status {
	case TaskStatusPending:
		if t.Progress != 0 {
			return fmt.Errorf("pending task must have 0 progress: %w", ErrNotValid)
		}
	case TaskStatusInProgress:
		if t.Progress == 100 {
			return fmt.Errorf("in progress task can't reach 100 progress: %w", ErrNotValid)
		}
	case TaskStatusCompleted:
		if t.Progress != 100 {
			return fmt.Errorf("completed task must have 100 progress: %w", ErrNotValid)
		}
	case TaskStatusFailed:
		if t.Progress == 100 {
			return fmt.Errorf("failed task can't have 100 progress: %w", ErrNotValid)
		}
		if t.Error == "" {
			return fmt.Errorf("failed task requires an error message: %w", ErrNotValid)
		}
	}

	if t.Status != TaskStatusFailed && t.Error != "" {
		return fmt.Errorf("only failed tasks can have an error message: %w", ErrNotValid)
	}

	return nil
}

// TaskMutator applies a state transition to a task.
type TaskMutator func(t *TaskState) error

// StartTask transitions a pending task to in progress.
func StartTask() TaskMutator {
	return func(t *TaskState) error {
		if t.Status != TaskStatusPending {
			return fmt.Errorf("can't start a %s task: %w", t.Status, ErrNotValid)
		}
		t.Status = TaskStatusInProgress
		t.Progress = 0
		return nil
	}
}

// SetProgress sets the progress of an in progress task. Progress can't go
// backwards and can't reach 100 until the task is completed.
func SetProgress(progress int) TaskMutator {
	return func(t *TaskState) error {
		if t.Status != TaskStatusInProgress {
			return fmt.Errorf("can't set progress on a %s task: %w", t.Status, ErrNotValid)
		}
		if progress < t.Progress {
			return fmt.Errorf("progress can't decrease from %d to %d: %w", t.Progress, progress, ErrNotValid)
		}
		if progress >= 100 {
			return fmt.Errorf("progress %d is reserved for completed tasks: %w", progress, ErrNotValid)
		}
		t.Progress = progress
		return nil
	}
}

// CompleteTask transitions an in progress task to completed.
func CompleteTask() TaskMutator {
	return func(t *TaskState) error {
		if t.Status != TaskStatusInProgress {
			return fmt.Errorf("can't complete a %s task: %w", t.Status, ErrNotValid)
		}
		t.Status = TaskStatusCompleted
		t.Progress = 100
		return nil
	}
}

// FailTask transitions an in progress task to failed, freezing its progress.
func FailTask(msg string) TaskMutator {
	return func(t *TaskState) error {
		if t.Status != TaskStatusInProgress {
			return fmt.Errorf("can't fail a %s task: %w", t.Status, ErrNotValid)
		}
		if msg == "" {
			return fmt.Errorf("failure message is required: %w", ErrNotValid)
		}
		t.Status = TaskStatusFailed
		t.Error = msg
		return nil
	}
}

// ApplyMutator applies a mutator over a copy of the task and validates the
// result. The original task is never modified.
func ApplyMutator(t TaskState, m TaskMutator) (TaskState, error) {
	if m == nil {
		return t, fmt.Errorf("mutator is required: %w", ErrNotValid)
	}

	if err := m(&t); err != nil {
		return t, err
	}

	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("invalid task state after mutation: %w", err)
	}

	return t, nil
}
