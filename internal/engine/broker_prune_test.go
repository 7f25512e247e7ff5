package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/seantiz/conveyor/internal/handler"
	"github.com/seantiz/conveyor/internal/model"
	"github.com/seantiz/conveyor/internal/store"
)

func topicCount(b *Broker) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics)
}

func TestBrokerRemoveDropsClosedMarkers(t *testing.T) {
	b := NewBroker()

	const n = 10000
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("job-%d", i)
		b.Close(ids[i])
	}
	if got := topicCount(b); got != n {
		t.Fatalf("topics = %d after closing %d jobs, want %d", got, n, n)
	}

	for _, id := range ids {
		b.Remove(id)
	}
	if got := topicCount(b); got != 0 {
		t.Errorf("topics = %d after removing all jobs, want 0", got)
	}
}

func TestBrokerUnsubscribePrunesEmptyOpenTopic(t *testing.T) {
	b := NewBroker()

	_, unsubscribe := b.Subscribe("job-1")
	if got := topicCount(b); got != 1 {
		t.Fatalf("topics = %d after subscribe, want 1", got)
	}

	unsubscribe()
	if got := topicCount(b); got != 0 {
		t.Errorf("topics = %d after last unsubscribe, want 0", got)
	}
}

func TestSweepPrunesBrokerTopics(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	s := store.NewMemoryStore(logger)
	t.Cleanup(func() { s.Close() })

	reg := handler.NewRegistry()
	reg.Register("echo", handler.Func(func(_ context.Context, _ json.RawMessage, _ handler.Reporter) (any, error) {
		return nil, nil
	}))

	e := New(s, reg, logger, WithRetention(time.Millisecond), WithSweepInterval(time.Millisecond))
	ctx := context.Background()

	// Walk a job through the lifecycle without starting workers, mirroring
	// what runJob leaves behind: a terminal record and a closed topic marker.
	j, _, err := e.Submit(ctx, "echo", nil, "")
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	s.UpdateJobStatus(ctx, j.ID, model.StatusRunning)
	s.CompleteJob(ctx, j.ID, json.RawMessage(`"done"`))
	e.broker.Close(j.ID)

	time.Sleep(5 * time.Millisecond)
	e.sweepOnce()

	if _, err := s.GetJob(ctx, j.ID); err == nil {
		t.Fatal("job survived the sweep")
	}
	if got := topicCount(e.broker); got != 0 {
		t.Errorf("broker topics = %d after sweep, want 0", got)
	}
}
