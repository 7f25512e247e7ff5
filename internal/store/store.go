package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/seantiz/conveyor/internal/model"
)

// ErrNotFound is returned when a job is not found. A job that was already
// swept is indistinguishable from one that never existed.
var ErrNotFound = errors.New("job not found")

// ErrInvalidTransition is returned when a job status transition is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// JobStats holds aggregate job counts.
type JobStats struct {
	Total         int            `json:"total"`
	CountByStatus map[string]int `json:"count_by_status"`
}

// Store defines the state operations for jobs and their idempotency index.
// Implementations must be safe for concurrent use; all state is
// process-memory-resident and lost on restart by design.
type Store interface {
	// CreateJob records a new job in pending state. If idempotencyKey is
	// non-empty and already mapped, the previously created job is returned
	// with created = false and no state is mutated. Otherwise the job is
	// stored, the key (if any) is mapped to it atomically, and created = true.
	CreateJob(ctx context.Context, j *model.Job, idempotencyKey string) (job *model.Job, created bool, err error)

	// GetJob returns a snapshot copy of the job or ErrNotFound.
	GetJob(ctx context.Context, id string) (*model.Job, error)

	// UpdateJobStatus applies a monotonic status transition. The first
	// transition to running stamps started_at; a transition to a terminal
	// status stamps completed_at. An unknown id is a no-op (the job was
	// already evicted). A non-monotonic transition returns ErrInvalidTransition.
	UpdateJobStatus(ctx context.Context, id, status string) error

	// CompleteJob atomically records the final result and transitions the job
	// to completed, so no snapshot can ever carry a final result on a
	// non-terminal status. The result is write-once: a second call fails the
	// transition check and leaves the stored result untouched. An unknown id
	// is a no-op.
	CompleteJob(ctx context.Context, id string, result json.RawMessage) error

	// FailJob atomically records the error summary and transitions the job to
	// failed. Same write-once and unknown-id semantics as CompleteJob.
	FailJob(ctx context.Context, id, message string) error

	// AppendIntermediate appends a timestamped progress entry and returns it.
	// An unknown id is a no-op and returns nil.
	AppendIntermediate(ctx context.Context, id string, data json.RawMessage) (*model.IntermediateResult, error)

	// Stats returns total and per-status job counts.
	Stats(ctx context.Context) (*JobStats, error)

	// Sweep removes every terminal job whose completed_at is older than
	// now-retention, along with any idempotency mapping pointing at it, and
	// returns the evicted ids so callers can release per-job resources held
	// elsewhere. Jobs without a completed_at are never swept.
	Sweep(ctx context.Context, retention time.Duration) ([]string, error)

	Close() error
}
