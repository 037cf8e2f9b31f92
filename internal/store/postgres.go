package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	PingContext(ctx context.Context) error
	Close() error
}

const (
	createRunsTableQuery = `CREATE TABLE IF NOT EXISTS orchestration_runs (
		run_id TEXT PRIMARY KEY,
		payload JSONB NOT NULL
	)`

	upsertRunQuery = `INSERT INTO orchestration_runs (run_id, payload)
	VALUES ($1, $2)
	ON CONFLICT (run_id) DO UPDATE SET payload = EXCLUDED.payload`

	selectRunQuery = `SELECT payload FROM orchestration_runs WHERE run_id = $1`
)

// PostgresTier keeps one JSONB row per run. The table is created on first
// use when the database was unreachable at startup.
type PostgresTier struct {
	db DB

	mu          sync.Mutex
	schemaReady bool
}

func NewPostgresTier(db DB) (*PostgresTier, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &PostgresTier{db: db}, nil
}

// EnsureSchema creates the runs table when missing.
func (t *PostgresTier) EnsureSchema(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.schemaReady {
		return nil
	}
	if _, err := t.db.ExecContext(ctx, createRunsTableQuery); err != nil {
		return fmt.Errorf("create orchestration_runs: %w", err)
	}
	t.schemaReady = true
	return nil
}

func (t *PostgresTier) Name() string { return "postgres" }

func (t *PostgresTier) Put(ctx context.Context, runID string, payload []byte) error {
	if err := t.EnsureSchema(ctx); err != nil {
		return err
	}
	if _, err := t.db.ExecContext(ctx, upsertRunQuery, runID, string(payload)); err != nil {
		return fmt.Errorf("upsert run: %w", err)
	}
	return nil
}

func (t *PostgresTier) Get(ctx context.Context, runID string) ([]byte, error) {
	if err := t.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	var payload []byte
	if err := t.db.QueryRowContext(ctx, selectRunQuery, runID).Scan(&payload); err != nil {
		return nil, handleNotFound(err)
	}
	return payload, nil
}

func (t *PostgresTier) Ping(ctx context.Context) error {
	return t.db.PingContext(ctx)
}

func (t *PostgresTier) Close() error {
	return t.db.Close()
}

func handleNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return fmt.Errorf("select run: %w", err)
}
