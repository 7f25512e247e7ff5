package model

import (
	"encoding/json"
	"time"
)

// Job status constants.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// validTransitions maps each status to the set of statuses it may transition to.
// Terminal statuses (completed, failed) have no outgoing transitions.
var validTransitions = map[string]map[string]bool{
	StatusPending: {
		StatusRunning: true,
		StatusFailed:  true,
	},
	StatusRunning: {
		StatusCompleted: true,
		StatusFailed:    true,
	},
}

// ValidTransition reports whether transitioning from one status to another is allowed.
func ValidTransition(from, to string) bool {
	targets, ok := validTransitions[from]
	if !ok {
		return false
	}
	return targets[to]
}

// Terminal reports whether a status permits no further transitions.
func Terminal(status string) bool {
	return status == StatusCompleted || status == StatusFailed
}

// IntermediateResult is a single progress report emitted by a handler while
// its job is running.
type IntermediateResult struct {
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Job represents one submitted unit of work and its execution record.
type Job struct {
	ID                  string               `json:"id"`
	Type                string               `json:"type"`
	Payload             json.RawMessage      `json:"payload,omitempty"`
	Status              string               `json:"status"`
	CreatedAt           time.Time            `json:"created_at"`
	StartedAt           *time.Time           `json:"started_at,omitempty"`
	CompletedAt         *time.Time           `json:"completed_at,omitempty"`
	IntermediateResults []IntermediateResult `json:"intermediate_results"`
	FinalResult         json.RawMessage      `json:"final_result,omitempty"`
	Error               string               `json:"error,omitempty"`
}

// Clone returns a deep copy of the job. The store hands out clones so callers
// can read a snapshot without racing with the executing worker.
func (j *Job) Clone() *Job {
	cp := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.CompletedAt != nil {
		t := *j.CompletedAt
		cp.CompletedAt = &t
	}
	if j.IntermediateResults != nil {
		cp.IntermediateResults = make([]IntermediateResult, len(j.IntermediateResults))
		copy(cp.IntermediateResults, j.IntermediateResults)
	}
	return &cp
}
