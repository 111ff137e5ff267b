package tasktrack

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slok/tasktrack/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	if c.Binary == "" {
		c.Binary = "tasktrack"
	}

	// go test changes the CWD to the test package directory.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("TASKTRACK_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("tasktrack binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "TASKTRACK_INTEGRATION"
		envBinary     = "TASKTRACK_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary: os.Getenv(envBinary),
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// StartServer runs the tracker server on a free port and returns its URL. The
// server is stopped when the test ends.
func StartServer(t *testing.T, config Config, extraArgs ...string) string {
	t.Helper()

	addr, err := freeAddr()
	if err != nil {
		t.Fatalf("could not get free address: %s", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	args := append([]string{"serve", "--listen-address", addr}, extraArgs...)
	cmd := testutils.NewTaskTrackCmd(ctx, nil, config.Binary, args, true)
	if err := cmd.Start(); err != nil {
		cancel()
		t.Fatalf("could not start server: %s", err)
	}
	t.Cleanup(func() {
		cancel()
		_ = cmd.Wait()
	})

	url := "http://" + addr
	if err := waitHealthy(url, 10*time.Second); err != nil {
		t.Fatalf("server not healthy: %s", err)
	}

	return url
}

// RunCmd runs a client command against the server.
func RunCmd(ctx context.Context, config Config, serverURL, cmdArgs string) (stdout, stderr []byte, err error) {
	return testutils.RunTaskTrack(ctx, nil, config.Binary, "--server-url "+serverURL+" "+cmdArgs, true)
}

func freeAddr() (string, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", err
	}
	defer l.Close()

	return l.Addr().String(), nil
}

func waitHealthy(url string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return fmt.Errorf("timeout waiting for %s", url)
}
