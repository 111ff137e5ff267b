package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/storage"
)

// ErrStopped is returned when starting a batch on a stopped orchestrator.
var ErrStopped = errors.New("orchestrator stopped")

// TaskRunner knows how to run a single task until it reaches a terminal state.
type TaskRunner interface {
	Run(ctx context.Context, ref model.TaskRef)
}

// OrchestratorConfig is the configuration for the orchestrator.
type OrchestratorConfig struct {
	Repository storage.Repository
	Runner     TaskRunner
	BatchSize  int
	// IDGen generates batch IDs, defaults to ULIDs.
	IDGen  func() string
	Logger log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Runner == nil {
		return fmt.Errorf("runner is required")
	}

	if c.BatchSize <= 0 || c.BatchSize > model.MaxBatchSize {
		return fmt.Errorf("batch size must be in [1, %d]", model.MaxBatchSize)
	}

	if c.IDGen == nil {
		c.IDGen = func() string { return ulid.Make().String() }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Orchestrator"})

	return nil
}

// launch tracks the runners started for a batch.
type launch struct {
	batchID string
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	done    chan struct{}
}

func (l *launch) running() bool {
	select {
	case <-l.done:
		return false
	default:
		return true
	}
}

// Orchestrator controls the batch lifecycle: installs fresh batches and launches
// the task runners of the live batch.
type Orchestrator struct {
	repo      storage.Repository
	runner    TaskRunner
	batchSize int
	idGen     func() string
	logger    log.Logger

	// Serializes start, reset and stop.
	mu       sync.Mutex
	current  *launch
	stopped  bool
	launches sync.WaitGroup
}

// NewOrchestrator creates a new orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		repo:      cfg.Repository,
		runner:    cfg.Runner,
		batchSize: cfg.BatchSize,
		idGen:     cfg.IDGen,
		logger:    cfg.Logger,
	}, nil
}

// StartBatch launches one runner for every pending task of the live batch and
// returns the number of launched tasks without waiting for them. Starting a
// batch that still has running tasks fails with model.ErrBatchAlreadyRunning.
func (o *Orchestrator) StartBatch(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.stopped {
		return 0, ErrStopped
	}

	batch, err := o.repo.GetSnapshot(ctx)
	if err != nil {
		return 0, fmt.Errorf("could not get live batch: %w", err)
	}

	// Runners of a batch with all its tasks finished are only winding down.
	summary := batch.Summary()
	if o.current != nil && o.current.batchID == batch.ID && o.current.running() && !summary.Done() {
		return 0, fmt.Errorf("batch %s: %w", batch.ID, model.ErrBatchAlreadyRunning)
	}

	if summary.InProgress > 0 {
		return 0, fmt.Errorf("batch %s has %d tasks in progress: %w", batch.ID, summary.InProgress, model.ErrBatchAlreadyRunning)
	}

	// Runners outlive the request that started them.
	runCtx, cancel := context.WithCancel(context.Background())
	l := &launch{
		batchID: batch.ID,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	started := 0
	for id, task := range batch.Tasks {
		if task.Status != model.TaskStatusPending {
			continue
		}

		ref := batch.Ref(id)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			o.runner.Run(runCtx, ref)
		}()
		started++
	}

	o.launches.Add(1)
	go func() {
		defer o.launches.Done()
		l.wg.Wait()
		cancel()
		close(l.done)
		o.logger.Infof("Batch %s runners finished", l.batchID)
	}()

	o.current = l
	o.logger.Infof("Started %d tasks of batch %s", started, batch.ID)

	return started, nil
}

// ResetBatch replaces the live batch with a fresh one with all its tasks
// pending. The runners of the previous batch are cancelled, any write they
// still do is discarded by the repository.
func (o *Orchestrator) ResetBatch(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	batch := model.NewBatch(o.idGen(), o.batchSize, time.Now().UTC())
	if err := o.repo.ReplaceBatch(ctx, batch); err != nil {
		return fmt.Errorf("could not replace batch: %w", err)
	}

	if o.current != nil {
		o.current.cancel()
		o.current = nil
	}

	o.logger.Infof("Batch reset, new batch %s with %d tasks", batch.ID, o.batchSize)

	return nil
}

// Wait blocks until the runners of the current launch finish or the context is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	o.mu.Lock()
	l := o.current
	o.mu.Unlock()

	if l == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return nil
	}
}

// Stop cancels all the running tasks and waits for them to end. No batch can
// be started after Stop.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	o.stopped = true
	if o.current != nil {
		o.current.cancel()
	}
	o.mu.Unlock()

	o.launches.Wait()
}
