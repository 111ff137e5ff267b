package publisher

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/storage"
)

// Subscriber receives batch status updates.
type Subscriber interface {
	// Send delivers one status, an error means the subscriber is gone.
	Send(ctx context.Context, status model.BatchStatus) error
}

// SubscriberFunc is a helper to use functions as subscribers.
type SubscriberFunc func(ctx context.Context, status model.BatchStatus) error

func (f SubscriberFunc) Send(ctx context.Context, status model.BatchStatus) error {
	return f(ctx, status)
}

// PublisherConfig is the configuration for the status publisher.
type PublisherConfig struct {
	Repository storage.Repository
	Interval   time.Duration
	Logger     log.Logger
}

func (c *PublisherConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Interval == 0 {
		c.Interval = model.DefaultTrackerConfig().PublishInterval
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must be positive")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "publisher.Publisher"})

	return nil
}

// Publisher pushes periodic snapshots of the live batch to its subscribers.
type Publisher struct {
	repo     storage.Repository
	interval time.Duration
	logger   log.Logger
}

// NewPublisher creates a new status publisher.
func NewPublisher(cfg PublisherConfig) (*Publisher, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Publisher{
		repo:     cfg.Repository,
		interval: cfg.Interval,
		logger:   cfg.Logger,
	}, nil
}

// Status returns the current aggregated status of the live batch.
func (p *Publisher) Status(ctx context.Context) (*model.BatchStatus, error) {
	batch, err := p.repo.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get live batch: %w", err)
	}

	status := batch.Summary()
	return &status, nil
}

// Subscribe sends the status to the subscriber right away and then on every
// interval. It blocks until the context is done or the subscriber fails to
// receive, neither of them is an error.
func (p *Publisher) Subscribe(ctx context.Context, sub Subscriber) error {
	logger := p.logger.WithCtxValues(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if !p.publish(ctx, logger, sub) {
			logger.Debugf("Subscriber gone, stopping publishing")
			return nil
		}

		select {
		case <-ctx.Done():
			logger.Debugf("Subscription context done, stopping publishing")
			return nil
		case <-ticker.C:
		}
	}
}

// publish returns false when the subscriber can't receive anymore.
func (p *Publisher) publish(ctx context.Context, logger log.Logger, sub Subscriber) bool {
	status, err := p.Status(ctx)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warningf("Skipping status publish: %s", err)
		}
		return true
	}

	if err := sub.Send(ctx, *status); err != nil {
		logger.Debugf("Could not send status: %s", err)
		return false
	}

	return true
}
