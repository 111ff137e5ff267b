package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/gin-gonic/gin"
	"github.com/oklog/run"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/tasktrack/internal/api"
	"github.com/slok/tasktrack/internal/conventions"
	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/orchestrator"
	"github.com/slok/tasktrack/internal/publisher"
	"github.com/slok/tasktrack/internal/runner"
	"github.com/slok/tasktrack/internal/storage"
	"github.com/slok/tasktrack/internal/storage/io"
	"github.com/slok/tasktrack/internal/storage/memory"
	"github.com/slok/tasktrack/internal/storage/sqlite"
)

const (
	storageMemory = "memory"
	storageSQLite = "sqlite"
)

type ServeCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	listenAddress     string
	storage           string
	dbPath            string
	configFile        string
	defaultConfigFile string
	fast              bool
	allowedOrigins    []string
}

// NewServeCommand returns the serve command.
func NewServeCommand(rootCmd *RootCommand, app *kingpin.Application) *ServeCommand {
	c := &ServeCommand{
		rootCmd:           rootCmd,
		defaultConfigFile: conventions.ConfigPath(homedir.HomeDir()),
	}

	c.Cmd = app.Command("serve", "Run the tracker server.")
	c.Cmd.Flag("listen-address", "Address where the HTTP server listens.").Default(conventions.DefaultListenAddress).StringVar(&c.listenAddress)
	c.Cmd.Flag("storage", "Task record store backend.").Default(storageMemory).EnumVar(&c.storage, storageMemory, storageSQLite)
	c.Cmd.Flag("db-path", fmt.Sprintf("Path to the SQLite database file, empty uses an in-memory database (e.g. %s).", conventions.DBPath(homedir.HomeDir()))).StringVar(&c.dbPath)
	c.Cmd.Flag("config", "Path to the tracker configuration YAML file.").Default(c.defaultConfigFile).StringVar(&c.configFile)
	c.Cmd.Flag("fast", "Use short task durations, useful for development.").BoolVar(&c.fast)
	c.Cmd.Flag("allowed-origin", "CORS allowed origin, can be repeated.").Default(api.DefaultAllowedOrigin).StringsVar(&c.allowedOrigins)

	return c
}

func (c ServeCommand) Name() string { return c.Cmd.FullCommand() }

func (c ServeCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	tracker, err := c.loadTrackerConfig(ctx)
	if err != nil {
		return err
	}

	repo, closeRepo, err := c.newRepository(ctx, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	r, err := runner.NewRunner(runner.RunnerConfig{
		Repository: repo,
		Tracker:    tracker,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create runner: %w", err)
	}

	orch, err := orchestrator.NewOrchestrator(orchestrator.OrchestratorConfig{
		Repository: repo,
		Runner:     r,
		BatchSize:  tracker.BatchSize,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create orchestrator: %w", err)
	}
	defer orch.Stop()

	// Every process start begins with a fresh batch.
	if err := orch.ResetBatch(ctx); err != nil {
		return fmt.Errorf("could not install initial batch: %w", err)
	}

	pub, err := publisher.NewPublisher(publisher.PublisherConfig{
		Repository: repo,
		Interval:   tracker.PublishInterval,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("could not create publisher: %w", err)
	}

	if !c.rootCmd.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	handler, err := api.NewHandler(api.HandlerConfig{
		Orchestrator:   orch,
		Publisher:      pub,
		AllowedOrigins: c.allowedOrigins,
		Logger:         logger,
	})
	if err != nil {
		return fmt.Errorf("could not create HTTP handler: %w", err)
	}

	var g run.Group

	// HTTP server.
	{
		srv := &http.Server{
			Addr:              c.listenAddress,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		g.Add(
			func() error {
				logger.WithValues(log.Kv{"addr": c.listenAddress}).Infof("HTTP server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server failed: %w", err)
				}
				return nil
			},
			func(_ error) {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					logger.Warningf("Could not shutdown HTTP server gracefully: %s", err)
				}
			},
		)
	}

	// Parent context.
	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(
			func() error {
				<-ctx.Done()
				logger.Infof("Stopping server")
				return nil
			},
			func(_ error) {
				cancel()
			},
		)
	}

	return g.Run()
}

// loadTrackerConfig returns the tracker configuration. The default config file
// is optional, an explicit one must exist.
func (c ServeCommand) loadTrackerConfig(ctx context.Context) (model.TrackerConfig, error) {
	base := model.DefaultTrackerConfig()
	if c.fast {
		base = model.FastTrackerConfig()
	}

	if c.configFile == "" {
		return base, nil
	}

	configPath, err := filepath.Abs(c.configFile)
	if err != nil {
		return model.TrackerConfig{}, fmt.Errorf("could not resolve config path: %w", err)
	}

	if c.configFile == c.defaultConfigFile {
		if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
			c.rootCmd.Logger.Debugf("No config file at %s, using defaults", configPath)
			return base, nil
		}
	}

	configRepo := io.NewConfigYAMLRepository(os.DirFS("/"))
	cfg, err := configRepo.GetConfig(ctx, configPath[1:], base)
	if err != nil {
		return model.TrackerConfig{}, fmt.Errorf("could not load tracker config: %w", err)
	}

	return cfg, nil
}

func (c ServeCommand) newRepository(ctx context.Context, logger log.Logger) (storage.Repository, func(), error) {
	switch c.storage {
	case storageSQLite:
		repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
			DBPath: c.dbPath,
			Logger: logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create sqlite repository: %w", err)
		}
		closeRepo := func() {
			if err := repo.Close(); err != nil {
				logger.Warningf("Could not close repository: %s", err)
			}
		}
		return repo, closeRepo, nil

	default:
		repo, err := memory.NewRepository(memory.RepositoryConfig{Logger: logger})
		if err != nil {
			return nil, nil, fmt.Errorf("could not create memory repository: %w", err)
		}
		return repo, func() {}, nil
	}
}
