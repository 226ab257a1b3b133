// Package jobstore persists analysis jobs through their lifecycle:
// pending → processing → done | error. The PostgreSQL implementation backs
// the production deployment; the in-memory one serves tests and single-node
// setups without a database.
package jobstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Job statuses.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusError      = "error"
)

// ErrNotFound is returned when the requested job id does not exist.
var ErrNotFound = errors.New("jobstore: job not found")

// Job is one analysis job row. Results holds the serialized result document
// once the job is done; ErrorMessage is set only on error.
type Job struct {
	ID           string
	Status       string
	Results      json.RawMessage
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Terminal reports whether the job reached a final state.
func (j *Job) Terminal() bool {
	return j.Status == StatusDone || j.Status == StatusError
}

// Store persists jobs. All methods are safe for concurrent use.
type Store interface {
	// Create inserts a new pending job and returns its id.
	Create(ctx context.Context) (string, error)

	// Get returns the job with the given id, or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// SetStatus updates the job's status without touching results.
	SetStatus(ctx context.Context, id, status string) error

	// Complete marks the job done and stores its result document.
	Complete(ctx context.Context, id string, results json.RawMessage) error

	// Fail marks the job errored with a human-readable message.
	Fail(ctx context.Context, id, message string) error

	// Ping verifies the backing storage is reachable.
	Ping(ctx context.Context) error
}
