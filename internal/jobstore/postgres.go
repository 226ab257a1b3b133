package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ Store = (*PostgresStore)(nil)

const ddlJobs = `
CREATE TABLE IF NOT EXISTS jobs (
    id            TEXT         PRIMARY KEY,
    status        TEXT         NOT NULL DEFAULT 'pending',
    results       JSONB,
    error_message TEXT         NOT NULL DEFAULT '',
    created_at    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_status
    ON jobs (status);
`

// PostgresStore persists jobs in a PostgreSQL jobs table. All methods are
// safe for concurrent use; the pool handles connection management.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn, verifies the connection,
// and ensures the jobs table exists.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("jobstore: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("jobstore: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("jobstore: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlJobs); err != nil {
		pool.Close()
		return nil, fmt.Errorf("jobstore: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Create(ctx context.Context) (string, error) {
	id := uuid.NewString()
	const q = `INSERT INTO jobs (id, status) VALUES ($1, $2)`
	if _, err := s.pool.Exec(ctx, q, id, StatusPending); err != nil {
		return "", fmt.Errorf("jobstore: create job: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*Job, error) {
	const q = `
		SELECT id, status, results, error_message, created_at, updated_at
		FROM   jobs
		WHERE  id = $1`

	var job Job
	err := s.pool.QueryRow(ctx, q, id).Scan(
		&job.ID, &job.Status, &job.Results, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("jobstore: get job: %w", err)
	}
	return &job, nil
}

func (s *PostgresStore) SetStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE jobs SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("jobstore: set status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Complete(ctx context.Context, id string, results json.RawMessage) error {
	const q = `
		UPDATE jobs
		SET    status = $2, results = $3, updated_at = now()
		WHERE  id = $1`
	tag, err := s.pool.Exec(ctx, q, id, StatusDone, results)
	if err != nil {
		return fmt.Errorf("jobstore: complete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Fail(ctx context.Context, id, message string) error {
	const q = `
		UPDATE jobs
		SET    status = $2, error_message = $3, updated_at = now()
		WHERE  id = $1`
	tag, err := s.pool.Exec(ctx, q, id, StatusError, message)
	if err != nil {
		return fmt.Errorf("jobstore: fail job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("jobstore: ping: %w", err)
	}
	return nil
}
