package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/publisher"
)

// DefaultAllowedOrigin is the origin of the bundled dashboard dev server.
const DefaultAllowedOrigin = "http://localhost:3000"

// Orchestrator controls the batch lifecycle.
type Orchestrator interface {
	StartBatch(ctx context.Context) (int, error)
	ResetBatch(ctx context.Context) error
}

// StatusPublisher serves the batch status.
type StatusPublisher interface {
	Status(ctx context.Context) (*model.BatchStatus, error)
	Subscribe(ctx context.Context, sub publisher.Subscriber) error
}

// HandlerConfig is the configuration for the HTTP handler.
type HandlerConfig struct {
	Orchestrator Orchestrator
	Publisher    StatusPublisher
	// AllowedOrigins are the CORS allowed origins, "*" allows any origin.
	AllowedOrigins []string
	// WriteTimeout is the max time to write a single WebSocket message.
	WriteTimeout time.Duration
	Logger       log.Logger
}

func (c *HandlerConfig) defaults() error {
	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}

	if c.Publisher == nil {
		return fmt.Errorf("publisher is required")
	}

	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{DefaultAllowedOrigin}
	}

	if c.WriteTimeout == 0 {
		c.WriteTimeout = 5 * time.Second
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "api.Handler"})

	return nil
}

type handler struct {
	orch           Orchestrator
	publisher      StatusPublisher
	allowedOrigins []string
	writeTimeout   time.Duration
	upgrader       websocket.Upgrader
	logger         log.Logger
}

// NewHandler returns the HTTP handler that exposes the tracker.
func NewHandler(cfg HandlerConfig) (http.Handler, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	h := handler{
		orch:           cfg.Orchestrator,
		publisher:      cfg.Publisher,
		allowedOrigins: cfg.AllowedOrigins,
		writeTimeout:   cfg.WriteTimeout,
		logger:         cfg.Logger,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || h.originAllowed(origin)
		},
	}

	r := gin.New()
	r.Use(gin.Recovery(), h.logRequests(), h.cors())

	r.POST("/start", h.startBatch)
	r.POST("/reset", h.resetBatch)
	r.GET("/status", h.status)
	r.GET("/ws", h.ws)
	r.GET("/health", h.health)

	return r, nil
}

func (h handler) startBatch(c *gin.Context) {
	n, err := h.orch.StartBatch(c.Request.Context())
	if err != nil {
		if errors.Is(err, model.ErrBatchAlreadyRunning) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "Tasks are already running"})
			return
		}

		h.logger.Errorf("Could not start batch: %s", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("%d tasks started", n)})
}

func (h handler) resetBatch(c *gin.Context) {
	err := h.orch.ResetBatch(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Could not reset batch: %s", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Tasks reset"})
}

func (h handler) status(c *gin.Context) {
	status, err := h.publisher.Status(c.Request.Context())
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "no batch available"})
			return
		}

		h.logger.Errorf("Could not get status: %s", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, mapStatusFromModel(*status))
}

func (h handler) health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (h handler) ws(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader already replied to the client.
		h.logger.Debugf("Could not upgrade connection: %s", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	ctx = log.CtxWithValues(ctx, log.Kv{"conn-id": uuid.NewString()})
	logger := h.logger.WithCtxValues(ctx)
	logger.Debugf("Status subscriber connected")

	// We don't expect messages, reading is how a closed connection is detected.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sub := wsSubscriber{conn: conn, writeTimeout: h.writeTimeout}
	if err := h.publisher.Subscribe(ctx, sub); err != nil {
		logger.Warningf("Subscription ended with error: %s", err)
	}

	deadline := time.Now().Add(h.writeTimeout)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	logger.Debugf("Status subscriber disconnected")
}

type wsSubscriber struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
}

func (w wsSubscriber) Send(_ context.Context, status model.BatchStatus) error {
	if err := w.conn.SetWriteDeadline(time.Now().Add(w.writeTimeout)); err != nil {
		return err
	}

	return w.conn.WriteJSON(mapStatusFromModel(status))
}

func (h handler) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && h.originAllowed(origin) {
			hdr := c.Writer.Header()
			hdr.Set("Access-Control-Allow-Origin", origin)
			// Credentials are only allowed for explicitly listed origins.
			if slices.Contains(h.allowedOrigins, origin) {
				hdr.Set("Access-Control-Allow-Credentials", "true")
			}
			hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			hdr.Set("Access-Control-Allow-Headers", "*")
			hdr.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (h handler) originAllowed(origin string) bool {
	return slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin)
}

func (h handler) logRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.WithValues(log.Kv{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debugf("HTTP request handled")
	}
}
