package jobstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps jobs in a process-local map. Jobs disappear on restart;
// use the Postgres store when results must survive the process.
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*Job)}
}

func (s *MemoryStore) Create(_ context.Context) (string, error) {
	id := uuid.NewString()
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[id] = &Job{ID: id, Status: StatusPending, CreatedAt: now, UpdatedAt: now}
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) SetStatus(_ context.Context, id, status string) error {
	return s.update(id, func(job *Job) {
		job.Status = status
	})
}

func (s *MemoryStore) Complete(_ context.Context, id string, results json.RawMessage) error {
	return s.update(id, func(job *Job) {
		job.Status = StatusDone
		job.Results = append(json.RawMessage(nil), results...)
	})
}

func (s *MemoryStore) Fail(_ context.Context, id, message string) error {
	return s.update(id, func(job *Job) {
		job.Status = StatusError
		job.ErrorMessage = message
	})
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) update(id string, fn func(*Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	fn(job)
	job.UpdatedAt = time.Now()
	return nil
}
