package lib

import (
	"errors"
	"time"

	"github.com/slok/tasktrack/internal/model"
)

// StorageType identifies the task record store implementation.
type StorageType string

const (
	// StorageMemory keeps the batch in process memory.
	StorageMemory StorageType = "memory"
	// StorageSQLite keeps the batch in a SQLite database, in memory or on a file.
	StorageSQLite StorageType = "sqlite"
)

// TaskStatus represents the state of a task.
//
// The lifecycle of a task is:
//
//	pending -> in_progress -> completed | failed
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not started yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusInProgress indicates the task is running.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task finished successfully, always with 100 progress.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task finished with an error, progress is frozen.
	TaskStatusFailed TaskStatus = "failed"
)

// TaskState is the state of a single task.
type TaskState struct {
	Status TaskStatus
	// Progress is the completion percentage in [0, 100].
	Progress int
	// Error is only set when the task failed.
	Error string
}

// BatchStatus is the aggregated status of a batch.
type BatchStatus struct {
	BatchID    string
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Failed     int
	// Tasks are indexed by task ID.
	Tasks []TaskState
}

// Done returns true when all the tasks of the batch reached a terminal state.
func (s BatchStatus) Done() bool { return s.Completed+s.Failed == s.Total }

// TrackerConfig tunes the simulated tasks.
type TrackerConfig struct {
	// BatchSize is the number of tasks of each batch.
	BatchSize int
	// Steps is the number of progress updates of a task.
	Steps int
	// MinDuration and MaxDuration bound the random duration of a task.
	MinDuration time.Duration
	MaxDuration time.Duration
	// FailureChance is the probability in [0, 1] of a task failing at the end.
	FailureChance float64
	// PublishInterval is the time between status updates sent to watchers.
	PublishInterval time.Duration
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return fromInternalTrackerConfig(model.DefaultTrackerConfig())
}

// FastTrackerConfig returns a tracker configuration with short task durations.
func FastTrackerConfig() TrackerConfig {
	return fromInternalTrackerConfig(model.FastTrackerConfig())
}

var (
	// ErrNotFound is returned when there is no batch.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned on invalid input.
	ErrNotValid = errors.New("not valid")
	// ErrBatchAlreadyRunning is returned when starting a batch with running tasks.
	ErrBatchAlreadyRunning = errors.New("batch already running")
)

func toInternalTrackerConfig(c TrackerConfig) model.TrackerConfig {
	return model.TrackerConfig{
		BatchSize:       c.BatchSize,
		Steps:           c.Steps,
		MinDuration:     c.MinDuration,
		MaxDuration:     c.MaxDuration,
		FailureChance:   c.FailureChance,
		PublishInterval: c.PublishInterval,
	}
}

func fromInternalTrackerConfig(c model.TrackerConfig) TrackerConfig {
	return TrackerConfig{
		BatchSize:       c.BatchSize,
		Steps:           c.Steps,
		MinDuration:     c.MinDuration,
		MaxDuration:     c.MaxDuration,
		FailureChance:   c.FailureChance,
		PublishInterval: c.PublishInterval,
	}
}

func fromInternalBatchStatus(s model.BatchStatus) BatchStatus {
	tasks := make([]TaskState, 0, len(s.Tasks))
	for _, t := range s.Tasks {
		tasks = append(tasks, TaskState{
			Status:   TaskStatus(t.Status),
			Progress: t.Progress,
			Error:    t.Error,
		})
	}

	return BatchStatus{
		BatchID:    s.BatchID,
		Total:      s.Total,
		Pending:    s.Pending,
		InProgress: s.InProgress,
		Completed:  s.Completed,
		Failed:     s.Failed,
		Tasks:      tasks,
	}
}

func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, model.ErrNotFound):
		return joinErrors(err, ErrNotFound)
	case errors.Is(err, model.ErrNotValid):
		return joinErrors(err, ErrNotValid)
	case errors.Is(err, model.ErrBatchAlreadyRunning):
		return joinErrors(err, ErrBatchAlreadyRunning)
	default:
		return err
	}
}

func joinErrors(original, sentinel error) error {
	return &mappedError{original: original, sentinel: sentinel}
}

type mappedError struct {
	original error
	sentinel error
}

func (e *mappedError) Error() string { return e.original.Error() }

func (e *mappedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *mappedError) Unwrap() error { return e.original }
