package tasktrack_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inttasktrack "github.com/slok/tasktrack/test/integration/tasktrack"
)

// statusOutput matches the JSON output of `tasktrack status --format json`.
type statusOutput struct {
	BatchID    string `json:"batch_id"`
	Total      int    `json:"total"`
	Pending    int    `json:"pending"`
	InProgress int    `json:"in_progress"`
	Completed  int    `json:"completed"`
	Failed     int    `json:"failed"`
	Done       bool   `json:"done"`
	Tasks      []struct {
		ID       int    `json:"id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
		Error    string `json:"error"`
	} `json:"tasks"`
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestIntegrationBatchLifecycle(t *testing.T) {
	config := inttasktrack.NewConfig(t)

	tests := map[string]struct {
		storageArgs  string
		config       string
		expCompleted int
		expFailed    int
	}{
		"A batch on the memory store without failures should complete all the tasks.": {
			storageArgs: "--storage memory",
			config: `batch_size: 4
steps: 5
duration:
  min: 100ms
  max: 300ms
failure_chance: 0
publish_interval: 50ms
`,
			expCompleted: 4,
		},

		"A batch on the SQLite store with full failure chance should fail all the tasks.": {
			storageArgs: "--storage sqlite",
			config: `batch_size: 3
steps: 5
duration:
  min: 100ms
  max: 300ms
failure_chance: 1
publish_interval: 50ms
`,
			expFailed: 3,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			configPath := writeConfig(t, test.config)
			args := append(strings.Split(test.storageArgs, " "), "--config", configPath)
			url := inttasktrack.StartServer(t, config, args...)

			stdout, stderr, err := inttasktrack.RunCmd(ctx, config, url, "start")
			require.NoError(err, "stderr: %s", stderr)
			assert.Contains(string(stdout), "tasks started")

			// Starting again while running should fail.
			_, _, err = inttasktrack.RunCmd(ctx, config, url, "start")
			assert.Error(err)

			stdout, stderr, err = inttasktrack.RunCmd(ctx, config, url, "watch --until-done --format json")
			require.NoError(err, "stderr: %s", stderr)
			lines := strings.Split(strings.TrimSpace(string(stdout)), "\n")

			var last statusOutput
			require.NoError(json.Unmarshal([]byte(lines[len(lines)-1]), &last))
			assert.True(last.Done)
			assert.Equal(test.expCompleted, last.Completed)
			assert.Equal(test.expFailed, last.Failed)

			stdout, stderr, err = inttasktrack.RunCmd(ctx, config, url, "reset")
			require.NoError(err, "stderr: %s", stderr)
			assert.Equal("Tasks reset", strings.TrimSpace(string(stdout)))

			stdout, stderr, err = inttasktrack.RunCmd(ctx, config, url, "status --format json")
			require.NoError(err, "stderr: %s", stderr)
			var status statusOutput
			require.NoError(json.Unmarshal(stdout, &status))
			assert.Equal(status.Total, status.Pending)
			assert.NotEqual(last.BatchID, status.BatchID)
		})
	}
}
