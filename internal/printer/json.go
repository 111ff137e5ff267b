package printer

import (
	"encoding/json"
	"io"

	"github.com/slok/tasktrack/internal/model"
)

// JSONPrinter prints batch information in JSON format, one document per line
// so it can be used on status streams.
type JSONPrinter struct {
	writer io.Writer
}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type taskOutput struct {
	ID       int    `json:"id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

type statusOutput struct {
	BatchID    string       `json:"batch_id"`
	Total      int          `json:"total"`
	Pending    int          `json:"pending"`
	InProgress int          `json:"in_progress"`
	Completed  int          `json:"completed"`
	Failed     int          `json:"failed"`
	Done       bool         `json:"done"`
	Tasks      []taskOutput `json:"tasks"`
}

type messageOutput struct {
	Message string `json:"message"`
}

// PrintStatus prints the batch status as JSON.
func (j *JSONPrinter) PrintStatus(status model.BatchStatus) error {
	tasks := make([]taskOutput, 0, len(status.Tasks))
	for id, t := range status.Tasks {
		tasks = append(tasks, taskOutput{
			ID:       id,
			Status:   string(t.Status),
			Progress: t.Progress,
			Error:    t.Error,
		})
	}

	return j.print(statusOutput{
		BatchID:    status.BatchID,
		Total:      status.Total,
		Pending:    status.Pending,
		InProgress: status.InProgress,
		Completed:  status.Completed,
		Failed:     status.Failed,
		Done:       status.Done(),
		Tasks:      tasks,
	})
}

// PrintMessage prints a message as JSON.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.print(messageOutput{Message: msg})
}

func (j *JSONPrinter) print(v any) error {
	return json.NewEncoder(j.writer).Encode(v)
}
