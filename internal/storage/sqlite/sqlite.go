package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/tasktrack/internal/log"
	"github.com/slok/tasktrack/internal/model"
	"github.com/slok/tasktrack/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	// DBPath is the database file path, if empty an in-memory database is used.
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dsn := "file::memory:?_pragma=foreign_keys(1)"
	if cfg.DBPath != "" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("could not create db directory: %w", err)
		}
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// A single connection serializes the read-modify-write transactions and
	// keeps the in-memory database alive for the whole process.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	if cfg.DBPath != "" {
		cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)
	} else {
		cfg.Logger.Debugf("SQLite in-memory repository initialized")
	}

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// GetSnapshot returns a copy of the live batch read inside a single transaction.
func (r *Repository) GetSnapshot(ctx context.Context) (*model.Batch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var b model.Batch
	var createdAt int64
	err = tx.QueryRowContext(ctx, `SELECT id, created_at FROM batches LIMIT 1`).Scan(&b.ID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("live batch: %w", model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query batch: %w", err)
	}
	b.CreatedAt = timeFromUnixMilli(createdAt)

	query := `
		SELECT task_id, status, progress, error
		FROM tasks
		WHERE batch_id = ?
		ORDER BY task_id ASC
	`
	rows, err := tx.QueryContext(ctx, query, b.ID)
	if err != nil {
		return nil, fmt.Errorf("could not query tasks: %w", err)
	}
	defer rows.Close()

	b.Tasks = []model.TaskState{}
	for rows.Next() {
		var taskID int
		var t model.TaskState
		if err := rows.Scan(&taskID, &t.Status, &t.Progress, &t.Error); err != nil {
			return nil, fmt.Errorf("could not scan row: %w", err)
		}
		if taskID != len(b.Tasks) {
			return nil, fmt.Errorf("task %d missing on batch %s: %w", len(b.Tasks), b.ID, model.ErrNotValid)
		}
		b.Tasks = append(b.Tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &b, nil
}

// ReplaceBatch swaps the live batch in a single transaction.
func (r *Repository) ReplaceBatch(ctx context.Context, b model.Batch) error {
	if err := b.Validate(); err != nil {
		return fmt.Errorf("invalid batch: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // Rollback is safe to call after Commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("could not delete tasks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM batches`); err != nil {
		return fmt.Errorf("could not delete batches: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO batches (id, created_at) VALUES (?, ?)`, b.ID, b.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("could not insert batch: %w", err)
	}

	insertQuery := `
		INSERT INTO tasks (batch_id, task_id, status, progress, error)
		VALUES (?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, insertQuery)
	if err != nil {
		return fmt.Errorf("could not prepare statement: %w", err)
	}
	defer stmt.Close()

	for i, t := range b.Tasks {
		if _, err := stmt.ExecContext(ctx, b.ID, i, t.Status, t.Progress, t.Error); err != nil {
			return fmt.Errorf("could not insert task: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}

	r.logger.Debugf("Replaced live batch in repository: %s (%d tasks)", b.ID, len(b.Tasks))
	return nil
}

func timeFromUnixMilli(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
