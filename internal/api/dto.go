package api

import (
	"fmt"
	"strconv"

	"github.com/slok/tasktrack/internal/model"
)

// MessageResponse is the response of the batch control endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the response of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TaskStatusResponse is the status of a single task.
type TaskStatusResponse struct {
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// StatusResponse is the aggregated status of the live batch, it's used by the
// status endpoint and by every message of the WebSocket stream.
type StatusResponse struct {
	BatchID    string `json:"batch_id"`
	Total      int    `json:"total"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	InProgress int    `json:"in_progress"`
	Pending    int    `json:"pending"`
	// Individual is keyed by the task ID.
	Individual map[string]TaskStatusResponse `json:"individual"`
}

func mapStatusFromModel(s model.BatchStatus) StatusResponse {
	individual := make(map[string]TaskStatusResponse, len(s.Tasks))
	for id, t := range s.Tasks {
		individual[strconv.Itoa(id)] = TaskStatusResponse{
			Status:   string(t.Status),
			Progress: t.Progress,
			Error:    t.Error,
		}
	}

	return StatusResponse{
		BatchID:    s.BatchID,
		Total:      s.Total,
		Completed:  s.Completed,
		Failed:     s.Failed,
		InProgress: s.InProgress,
		Pending:    s.Pending,
		Individual: individual,
	}
}

// ToModel maps the response back to the domain status. Task IDs that are not
// integers or fall outside the total are ignored. Counters that don't add up
// to the total are rejected.
func (s StatusResponse) ToModel() (model.BatchStatus, error) {
	if s.Total < 0 || s.Total > model.MaxBatchSize {
		return model.BatchStatus{}, fmt.Errorf("total %d out of range [0, %d]: %w", s.Total, model.MaxBatchSize, model.ErrNotValid)
	}

	for _, n := range []int{s.Pending, s.InProgress, s.Completed, s.Failed} {
		if n < 0 {
			return model.BatchStatus{}, fmt.Errorf("negative task counter: %w", model.ErrNotValid)
		}
	}

	if sum := s.Pending + s.InProgress + s.Completed + s.Failed; sum != s.Total {
		return model.BatchStatus{}, fmt.Errorf("task counters add up to %d, total is %d: %w", sum, s.Total, model.ErrNotValid)
	}

	tasks := make([]model.TaskState, s.Total)
	for k, t := range s.Individual {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 || id >= s.Total {
			continue
		}
		tasks[id] = model.TaskState{
			Status:   model.TaskStatus(t.Status),
			Progress: t.Progress,
			Error:    t.Error,
		}
	}

	return model.BatchStatus{
		BatchID:    s.BatchID,
		Total:      s.Total,
		Pending:    s.Pending,
		InProgress: s.InProgress,
		Completed:  s.Completed,
		Failed:     s.Failed,
		Tasks:      tasks,
	}, nil
}
