package discovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nutriscope/backend/internal/domain"
)

// SQLiteTaskStore persists discovery tasks in an embedded SQLite database
// so queued work survives restarts. The UNIQUE ingredient_key column keeps
// enqueue idempotent; Claim uses a conditional UPDATE as the compare-and-set.
type SQLiteTaskStore struct {
	db *sql.DB
}

// NewSQLiteTaskStore opens (or creates) the database at dbPath.
func NewSQLiteTaskStore(dbPath string) (*SQLiteTaskStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteTaskStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *SQLiteTaskStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteTaskStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS discovery_tasks (
        id TEXT PRIMARY KEY,
        ingredient_key TEXT NOT NULL UNIQUE,
        requested_by TEXT NOT NULL,
        status TEXT NOT NULL,
        attempts INTEGER NOT NULL DEFAULT 0,
        last_attempt_at TEXT,
        created_at TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_discovery_tasks_status ON discovery_tasks(status, created_at);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get implements domain.TaskStore.
func (s *SQLiteTaskStore) Get(ctx context.Context, ingredientKey string) (*domain.DiscoveryTask, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, ingredient_key, requested_by, status, attempts, last_attempt_at, created_at, updated_at
        FROM discovery_tasks
        WHERE ingredient_key = ?`, ingredientKey)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrTaskNotFound
	}
	return task, err
}

// Put implements domain.TaskStore as an upsert on ingredient_key.
func (s *SQLiteTaskStore) Put(ctx context.Context, task *domain.DiscoveryTask) error {
	var lastAttempt any
	if !task.LastAttemptAt.IsZero() {
		lastAttempt = task.LastAttemptAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO discovery_tasks (id, ingredient_key, requested_by, status, attempts, last_attempt_at, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(ingredient_key) DO UPDATE SET
            requested_by = excluded.requested_by,
            status = excluded.status,
            attempts = excluded.attempts,
            last_attempt_at = excluded.last_attempt_at,
            updated_at = excluded.updated_at`,
		task.ID.String(), task.IngredientKey, task.RequestedBy, string(task.Status),
		task.Attempts, lastAttempt,
		task.CreatedAt.UTC().Format(time.RFC3339Nano),
		task.UpdatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}
	return nil
}

// ListPending implements domain.TaskStore, oldest first.
func (s *SQLiteTaskStore) ListPending(ctx context.Context, limit int) ([]*domain.DiscoveryTask, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, ingredient_key, requested_by, status, attempts, last_attempt_at, created_at, updated_at
        FROM discovery_tasks
        WHERE status = ?
        ORDER BY created_at ASC
        LIMIT ?`, string(domain.TaskPending), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.DiscoveryTask
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Claim implements domain.TaskStore: the WHERE clause on the current status
// makes the transition atomic, so RowsAffected tells us whether we won.
func (s *SQLiteTaskStore) Claim(ctx context.Context, ingredientKey string, from, to domain.TaskStatus) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
        UPDATE discovery_tasks
        SET status = ?, updated_at = ?
        WHERE ingredient_key = ? AND status = ?`,
		string(to), time.Now().UTC().Format(time.RFC3339Nano), ingredientKey, string(from))
	if err != nil {
		return false, fmt.Errorf("failed to claim task: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// scanner abstracts sql.Row / sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.DiscoveryTask, error) {
	var (
		task          domain.DiscoveryTask
		id            string
		status        string
		lastAttemptAt sql.NullString
		createdAt     string
		updatedAt     string
	)
	if err := row.Scan(&id, &task.IngredientKey, &task.RequestedBy, &status,
		&task.Attempts, &lastAttemptAt, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan task: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse task id: %w", err)
	}
	task.ID = parsed
	task.Status = domain.TaskStatus(status)

	if lastAttemptAt.Valid {
		if task.LastAttemptAt, err = time.Parse(time.RFC3339Nano, lastAttemptAt.String); err != nil {
			return nil, fmt.Errorf("failed to parse last_attempt_at: %w", err)
		}
	}
	if task.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if task.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &task, nil
}
