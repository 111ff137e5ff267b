package model

import "errors"

var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")
	// ErrNotValid is returned when a resource is not valid.
	ErrNotValid = errors.New("not valid")
	// ErrUnknownTask is returned when a task reference doesn't belong to the live batch.
	ErrUnknownTask = errors.New("unknown task")
	// ErrBatchAlreadyRunning is returned when a batch is started while its tasks are still running.
	ErrBatchAlreadyRunning = errors.New("batch already running")
)
