package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/conveyor/internal/model"
)

// Compile-time interface satisfaction check.
var _ Store = (*MemoryStore)(nil)

// MemoryStore implements Store with plain maps behind a single mutex.
// Mutations are short and never block, so one coarse guard is enough; no
// per-job locking is needed because a job is only ever mutated by the one
// worker that dequeued it.
type MemoryStore struct {
	mu          sync.Mutex
	jobs        map[string]*model.Job
	idempotency map[string]string // idempotency key -> job id
	logger      *slog.Logger
}

// NewMemoryStore creates an empty in-memory job store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		jobs:        make(map[string]*model.Job),
		idempotency: make(map[string]string),
		logger:      logger,
	}
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }

// CreateJob records a new pending job, honoring the idempotency key.
func (s *MemoryStore) CreateJob(_ context.Context, j *model.Job, idempotencyKey string) (*model.Job, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idempotencyKey != "" {
		if existingID, ok := s.idempotency[idempotencyKey]; ok {
			existing, ok := s.jobs[existingID]
			if !ok {
				// The mapping should have been evicted together with its job.
				return nil, false, fmt.Errorf("idempotency key %q maps to missing job %s", idempotencyKey, existingID)
			}
			return existing.Clone(), false, nil
		}
	}

	if _, exists := s.jobs[j.ID]; exists {
		return nil, false, fmt.Errorf("job id %s already exists", j.ID)
	}

	s.jobs[j.ID] = j.Clone()
	if idempotencyKey != "" {
		s.idempotency[idempotencyKey] = j.ID
	}

	return j.Clone(), true, nil
}

// GetJob returns a snapshot copy of the job or ErrNotFound.
func (s *MemoryStore) GetJob(_ context.Context, id string) (*model.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return j.Clone(), nil
}

// UpdateJobStatus applies a monotonic status transition with timestamp stamping.
func (s *MemoryStore) UpdateJobStatus(_ context.Context, id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		// Already evicted; not an error.
		return nil
	}

	if !model.ValidTransition(j.Status, status) {
		return fmt.Errorf("%w: %s -> %s for job %s", ErrInvalidTransition, j.Status, status, id)
	}

	j.Status = status
	now := time.Now().UTC()
	switch {
	case status == model.StatusRunning && j.StartedAt == nil:
		j.StartedAt = &now
	case model.Terminal(status) && j.CompletedAt == nil:
		j.CompletedAt = &now
	}

	return nil
}

// CompleteJob records the final result and the completed transition under one
// lock acquisition. A repeat call fails the transition check (terminal states
// have no outgoing transitions), which is what makes the result write-once.
func (s *MemoryStore) CompleteJob(_ context.Context, id string, result json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishLocked(id, model.StatusCompleted, func(j *model.Job) {
		j.FinalResult = result
	})
}

// FailJob records the error summary and the failed transition under one lock
// acquisition, with the same write-once guarantee as CompleteJob.
func (s *MemoryStore) FailJob(_ context.Context, id, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finishLocked(id, model.StatusFailed, func(j *model.Job) {
		j.Error = message
	})
}

// finishLocked applies a terminal transition and the associated write-once
// field in a single step. The caller must hold s.mu.
func (s *MemoryStore) finishLocked(id, status string, record func(*model.Job)) error {
	j, ok := s.jobs[id]
	if !ok {
		s.logger.Debug("terminal write for evicted job", "job_id", id)
		return nil
	}

	if !model.ValidTransition(j.Status, status) {
		return fmt.Errorf("%w: %s -> %s for job %s", ErrInvalidTransition, j.Status, status, id)
	}

	record(j)
	j.Status = status
	if j.CompletedAt == nil {
		now := time.Now().UTC()
		j.CompletedAt = &now
	}
	return nil
}

// AppendIntermediate appends a timestamped progress entry.
func (s *MemoryStore) AppendIntermediate(_ context.Context, id string, data json.RawMessage) (*model.IntermediateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return nil, nil
	}

	res := model.IntermediateResult{
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	j.IntermediateResults = append(j.IntermediateResults, res)
	return &res, nil
}

// Stats returns total and per-status job counts.
func (s *MemoryStore) Stats(_ context.Context) (*JobStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byStatus := map[string]int{
		model.StatusPending:   0,
		model.StatusRunning:   0,
		model.StatusCompleted: 0,
		model.StatusFailed:    0,
	}
	for _, j := range s.jobs {
		byStatus[j.Status]++
	}

	return &JobStats{
		Total:         len(s.jobs),
		CountByStatus: byStatus,
	}, nil
}

// Sweep evicts terminal jobs older than the retention window and any
// idempotency mappings that point at them, returning the evicted ids.
func (s *MemoryStore) Sweep(_ context.Context, retention time.Duration) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().UTC().Add(-retention)

	evicted := make(map[string]bool)
	var ids []string
	for id, j := range s.jobs {
		if !model.Terminal(j.Status) {
			continue
		}
		if j.CompletedAt == nil || !j.CompletedAt.Before(cutoff) {
			continue
		}
		delete(s.jobs, id)
		evicted[id] = true
		ids = append(ids, id)
	}

	if len(evicted) > 0 {
		for key, id := range s.idempotency {
			if evicted[id] {
				delete(s.idempotency, key)
			}
		}
	}

	return ids, nil
}
