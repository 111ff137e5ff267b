package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/tasktrack/internal/model"
)

func TestTaskStateValidate(t *testing.T) {
	tests := map[string]struct {
		task   model.TaskState
		expErr bool
	}{
		"A pending task should be valid": {
			task: model.TaskState{Status: model.TaskStatusPending},
		},

		"A pending task with progress should fail": {
			task:   model.TaskState{Status: model.TaskStatusPending, Progress: 10},
			expErr: true,
		},

		"An in progress task should be valid": {
			task: model.TaskState{Status: model.TaskStatusInProgress, Progress: 42},
		},

		"An in progress task with 100 progress should fail": {
			task:   model.TaskState{Status: model.TaskStatusInProgress, Progress: 100},
			expErr: true,
		},

		"A completed task should have 100 progress": {
			task:   model.TaskState{Status: model.TaskStatusCompleted, Progress: 99},
			expErr: true,
		},

		"A completed task should be valid": {
			task: model.TaskState{Status: model.TaskStatusCompleted, Progress: 100},
		},

		"A failed task should be valid": {
			task: model.TaskState{Status: model.TaskStatusFailed, Progress: 99, Error: "boom"},
		},

		"A failed task without error should fail": {
			task:   model.TaskState{Status: model.TaskStatusFailed, Progress: 99},
			expErr: true,
		},

		"A non failed task with error should fail": {
			task:   model.TaskState{Status: model.TaskStatusInProgress, Progress: 5, Error: "boom"},
			expErr: true,
		},

		"Negative progress should fail": {
			task:   model.TaskState{Status: model.TaskStatusInProgress, Progress: -1},
			expErr: true,
		},

		"Progress over 100 should fail": {
			task:   model.TaskState{Status: model.TaskStatusCompleted, Progress: 101},
			expErr: true,
		},

		"Unknown status should fail": {
			task:   model.TaskState{Status: "paused"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.task.Validate()

			if test.expErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyMutator(t *testing.T) {
	tests := map[string]struct {
		task    model.TaskState
		mutator model.TaskMutator
		expTask model.TaskState
		expErr  bool
	}{
		"Starting a pending task should set it in progress": {
			task:    model.TaskState{Status: model.TaskStatusPending},
			mutator: model.StartTask(),
			expTask: model.TaskState{Status: model.TaskStatusInProgress},
		},

		"Starting an in progress task should fail": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 3},
			mutator: model.StartTask(),
			expErr:  true,
		},

		"Setting progress should update it": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 3},
			mutator: model.SetProgress(4),
			expTask: model.TaskState{Status: model.TaskStatusInProgress, Progress: 4},
		},

		"Setting the same progress should not fail": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 3},
			mutator: model.SetProgress(3),
			expTask: model.TaskState{Status: model.TaskStatusInProgress, Progress: 3},
		},

		"Decreasing progress should fail": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 3},
			mutator: model.SetProgress(2),
			expErr:  true,
		},

		"Setting 100 progress without completing should fail": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 99},
			mutator: model.SetProgress(100),
			expErr:  true,
		},

		"Setting progress on a pending task should fail": {
			task:    model.TaskState{Status: model.TaskStatusPending},
			mutator: model.SetProgress(10),
			expErr:  true,
		},

		"Completing an in progress task should set 100 progress": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 99},
			mutator: model.CompleteTask(),
			expTask: model.TaskState{Status: model.TaskStatusCompleted, Progress: 100},
		},

		"Failing an in progress task should freeze progress": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 57},
			mutator: model.FailTask("boom"),
			expTask: model.TaskState{Status: model.TaskStatusFailed, Progress: 57, Error: "boom"},
		},

		"Failing without message should fail": {
			task:    model.TaskState{Status: model.TaskStatusInProgress, Progress: 57},
			mutator: model.FailTask(""),
			expErr:  true,
		},

		"A completed task should never transition again": {
			task:    model.TaskState{Status: model.TaskStatusCompleted, Progress: 100},
			mutator: model.FailTask("boom"),
			expErr:  true,
		},

		"A failed task should never transition again": {
			task:    model.TaskState{Status: model.TaskStatusFailed, Progress: 10, Error: "boom"},
			mutator: model.CompleteTask(),
			expErr:  true,
		},

		"A mutator leaving an invalid state should fail": {
			task: model.TaskState{Status: model.TaskStatusPending},
			mutator: func(t *model.TaskState) error {
				t.Progress = 20
				return nil
			},
			expErr: true,
		},

		"A missing mutator should fail": {
			task:   model.TaskState{Status: model.TaskStatusPending},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			original := test.task
			gotTask, err := model.ApplyMutator(test.task, test.mutator)

			// The source task is never modified.
			assert.Equal(original, test.task)

			if test.expErr {
				assert.Error(err)
				assert.True(errors.Is(err, model.ErrNotValid))
			} else if assert.NoError(err) {
				assert.Equal(test.expTask, gotTask)
			}
		})
	}
}
