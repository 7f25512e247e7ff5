package model

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"
)

// crockfordBase32 matches valid ULID strings (26 chars, Crockford Base32 alphabet).
var crockfordBase32 = regexp.MustCompile(`^[0123456789ABCDEFGHJKMNPQRSTVWXYZ]{26}$`)

func TestNewIDFormat(t *testing.T) {
	id := NewID()
	if !crockfordBase32.MatchString(id) {
		t.Errorf("NewID() = %q, does not match Crockford Base32 ULID format", id)
	}
}

func TestNewIDUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("NewID() produced duplicate: %s", id)
		}
		seen[id] = true
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusFailed, true},
		{StatusRunning, StatusPending, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusRunning, false},
		{StatusFailed, StatusCompleted, false},
		{"bogus", StatusRunning, false},
	}

	for _, tt := range tests {
		if got := ValidTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestTerminal(t *testing.T) {
	if Terminal(StatusPending) || Terminal(StatusRunning) {
		t.Error("pending and running must not be terminal")
	}
	if !Terminal(StatusCompleted) || !Terminal(StatusFailed) {
		t.Error("completed and failed must be terminal")
	}
}

func TestJobCloneIsDeep(t *testing.T) {
	started := time.Now().UTC()
	j := &Job{
		ID:        NewID(),
		Type:      "echo",
		Status:    StatusRunning,
		CreatedAt: time.Now().UTC(),
		StartedAt: &started,
		IntermediateResults: []IntermediateResult{
			{Timestamp: time.Now().UTC(), Data: json.RawMessage(`{"step":1}`)},
		},
	}

	cp := j.Clone()

	cp.IntermediateResults = append(cp.IntermediateResults, IntermediateResult{
		Timestamp: time.Now().UTC(),
		Data:      json.RawMessage(`{"step":2}`),
	})
	*cp.StartedAt = cp.StartedAt.Add(time.Hour)

	if len(j.IntermediateResults) != 1 {
		t.Errorf("original intermediate results len = %d, want 1", len(j.IntermediateResults))
	}
	if !j.StartedAt.Equal(started) {
		t.Errorf("original StartedAt mutated via clone: %v", j.StartedAt)
	}
}

func TestJobJSONOmitsUnsetFields(t *testing.T) {
	j := &Job{
		ID:        NewID(),
		Type:      "echo",
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	raw, err := json.Marshal(j)
	if err != nil {
		t.Fatalf("marshal job: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal job: %v", err)
	}

	for _, field := range []string{"started_at", "completed_at", "final_result", "error"} {
		if _, ok := m[field]; ok {
			t.Errorf("field %q present in JSON for a pending job", field)
		}
	}
}
