package printer_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/printer"
)

func statusFixture() model.BatchStatus {
	b := model.Batch{
		ID: "01JB3Z6Q9X8M3T2K4V5N7P8R9S",
		Tasks: []model.TaskState{
			{Status: model.TaskStatusPending},
			{Status: model.TaskStatusInProgress, Progress: 50},
			{Status: model.TaskStatusCompleted, Progress: 100},
			{Status: model.TaskStatusFailed, Progress: 12, Error: "simulated failure for task 3"},
		},
	}
	return b.Summary()
}

func TestTablePrinterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintStatus(statusFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Batch:        01JB3Z6Q9X8M3T2K4V5N7P8R9S")
	assert.Contains(t, out, "Total:        4")
	assert.Contains(t, out, "In progress:  1")
	assert.Contains(t, out, "Failed:       1")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	rows := lines[len(lines)-5:]
	assert.Contains(t, rows[0], "ID")
	assert.Contains(t, rows[0], "STATUS")
	assert.Contains(t, rows[2], "in_progress")
	assert.Contains(t, rows[2], "[##########----------]")
	assert.Contains(t, rows[3], "100%")
	assert.Contains(t, rows[4], "simulated failure for task 3")
}

func TestJSONPrinterPrintStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintStatus(statusFixture())
	require.NoError(t, err)

	exp := `{
		"batch_id": "01JB3Z6Q9X8M3T2K4V5N7P8R9S",
		"total": 4,
		"pending": 1,
		"in_progress": 1,
		"completed": 1,
		"failed": 1,
		"done": false,
		"tasks": [
			{"id": 0, "status": "pending", "progress": 0},
			{"id": 1, "status": "in_progress", "progress": 50},
			{"id": 2, "status": "completed", "progress": 100},
			{"id": 3, "status": "failed", "progress": 12, "error": "simulated failure for task 3"}
		]
	}`
	assert.JSONEq(t, exp, buf.String())
	assert.Equal(t, 1, strings.Count(buf.String(), "\n"))
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func TestJSONPrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintMessage("50 tasks started")
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"50 tasks started"}`, buf.String())
}

func TestProgressBar(t *testing.T) {
	tests := map[string]struct {
		progress int
		width    int
		exp      string
	}{
		"Zero progress should be empty":       {progress: 0, width: 10, exp: "[----------]"},
		"Half progress should be half filled": {progress: 50, width: 10, exp: "[#####-----]"},
		"Full progress should be filled":      {progress: 100, width: 10, exp: "[##########]"},
		"Partial blocks should round down":    {progress: 99, width: 10, exp: "[#########-]"},
		"Out of range progress should clamp":  {progress: 150, width: 4, exp: "[####]"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.exp, printer.ProgressBar(test.progress, test.width))
		})
	}
}
