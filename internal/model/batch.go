package model

import (
	"fmt"
	"time"
)

// Batch is the set of tasks belonging to one run. The index of each task
// state is its task ID.
type Batch struct {
	ID        string
	CreatedAt time.Time
	Tasks     []TaskState
}

// NewBatch returns a batch with all its tasks pending.
func NewBatch(id string, size int, createdAt time.Time) Batch {
	tasks := make([]TaskState, size)
	for i := range tasks {
		tasks[i] = TaskState{Status: TaskStatusPending}
	}

	return Batch{
		ID:        id,
		CreatedAt: createdAt,
		Tasks:     tasks,
	}
}

// Validate validates the batch and all of its tasks.
func (b Batch) Validate() error {
	if b.ID == "" {
		return fmt.Errorf("batch id is required: %w", ErrNotValid)
	}

	for i, t := range b.Tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
	}

	return nil
}

// Copy returns a copy of the batch that doesn't share memory with the original.
func (b Batch) Copy() Batch {
	tasks := make([]TaskState, len(b.Tasks))
	copy(tasks, b.Tasks)
	b.Tasks = tasks
	return b
}

// Ref returns the reference of a task of the batch.
func (b Batch) Ref(taskID int) TaskRef {
	return TaskRef{BatchID: b.ID, TaskID: taskID}
}

// Has returns true if the reference points to a task of this batch.
func (b Batch) Has(ref TaskRef) bool {
	return ref.BatchID == b.ID && ref.TaskID >= 0 && ref.TaskID < len(b.Tasks)
}

// Summary aggregates the batch task states.
func (b Batch) Summary() BatchStatus {
	s := BatchStatus{
		BatchID: b.ID,
		Total:   len(b.Tasks),
		Tasks:   make([]TaskState, len(b.Tasks)),
	}
	copy(s.Tasks, b.Tasks)

	for _, t := range b.Tasks {
		switch t.Status {
		case TaskStatusPending:
			s.Pending++
		case TaskStatusInProgress:
			s.InProgress++
		case TaskStatusCompleted:
			s.Completed++
		case TaskStatusFailed:
			s.Failed++
		}
	}

	return s
}

// BatchStatus is the aggregated status of a batch.
type BatchStatus struct {
	BatchID    string
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Failed     int
	Tasks      []TaskState
}

// Done returns true when all the tasks of the batch reached a terminal state.
func (s BatchStatus) Done() bool {
	return s.Completed+s.Failed == s.Total
}
