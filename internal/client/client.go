package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/slok/tasktrack/internal/api"
	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
)

// DefaultServerURL is the address of a local tracker server.
const DefaultServerURL = "http://127.0.0.1:8000"

// ClientConfig is the configuration for the tracker client.
type ClientConfig struct {
	ServerURL  string
	HTTPClient *http.Client
	Logger     log.Logger

	serverURL *url.URL
}

func (c *ClientConfig) defaults() error {
	if c.ServerURL == "" {
		c.ServerURL = DefaultServerURL
	}

	u, err := url.Parse(strings.TrimSuffix(c.ServerURL, "/"))
	if err != nil {
		return fmt.Errorf("invalid server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("server url scheme must be http or https")
	}
	c.serverURL = u

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "client.Client"})

	return nil
}

// Client talks to a tracker server.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	logger     log.Logger
}

// NewClient creates a new tracker client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		baseURL:    cfg.serverURL,
		httpClient: cfg.HTTPClient,
		logger:     cfg.Logger,
	}, nil
}

// Start starts the live batch and returns the server message.
func (c *Client) Start(ctx context.Context) (string, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/start", &resp); err != nil {
		return "", err
	}

	return resp.Message, nil
}

// Reset resets the live batch and returns the server message.
func (c *Client) Reset(ctx context.Context) (string, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/reset", &resp); err != nil {
		return "", err
	}

	return resp.Message, nil
}

// Status returns the current status of the live batch.
func (c *Client) Status(ctx context.Context) (*model.BatchStatus, error) {
	var resp api.StatusResponse
	if err := c.do(ctx, http.MethodGet, "/status", &resp); err != nil {
		return nil, err
	}

	status, err := resp.ToModel()
	if err != nil {
		return nil, fmt.Errorf("invalid status response: %w", err)
	}

	return &status, nil
}

// ErrStopWatch can be returned by a watch function to end the watch without error.
var ErrStopWatch = errors.New("stop watch")

// Watch subscribes to the status stream and calls fn for every received status
// until the context is done, the server closes the stream or fn returns an error.
func (c *Client) Watch(ctx context.Context, fn func(model.BatchStatus) error) error {
	wsURL := *c.baseURL
	wsURL.Scheme = "ws"
	if c.baseURL.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	wsURL.Path += "/ws"

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL.String(), nil)
	if err != nil {
		return fmt.Errorf("could not connect to %s: %w", wsURL.String(), err)
	}
	defer conn.Close()

	// Unblock the reads when the context ends.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	for {
		var msg api.StatusResponse
		err := conn.ReadJSON(&msg)
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("could not read status: %w", err)
		}

		status, err := msg.ToModel()
		if err != nil {
			return fmt.Errorf("invalid status message: %w", err)
		}

		err = fn(status)
		if err != nil {
			if errors.Is(err, ErrStopWatch) {
				c.logger.Debugf("Watch stopped")
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
					time.Now().Add(time.Second))
				return nil
			}
			return err
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, out any) error {
	u := *c.baseURL
	u.Path += path

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request to %s failed: %w", u.String(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if resp.StatusCode >= 300 {
		return responseError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("could not decode response: %w", err)
	}

	return nil
}

func responseError(code int, body []byte) error {
	msg := strings.TrimSpace(string(body))
	var errResp api.ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		msg = errResp.Error
	}

	switch code {
	case http.StatusConflict:
		return fmt.Errorf("%s: %w", msg, model.ErrBatchAlreadyRunning)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", msg, model.ErrNotFound)
	}

	return fmt.Errorf("server returned %d: %s", code, msg)
}
