package engine

import (
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := newQueue()
	for _, id := range []string{"a", "b", "c"} {
		q.Enqueue(id)
	}

	for _, want := range []string{"a", "b", "c"} {
		got, ok := q.Dequeue()
		if !ok {
			t.Fatal("Dequeue returned closed")
		}
		if got != want {
			t.Errorf("Dequeue = %q, want %q", got, want)
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len = %d after draining, want 0", q.Len())
	}
}

func TestQueueDequeueBlocksUntilEnqueue(t *testing.T) {
	q := newQueue()

	got := make(chan string, 1)
	go func() {
		id, _ := q.Dequeue()
		got <- id
	}()

	// Give the consumer a moment to block on the empty queue.
	time.Sleep(20 * time.Millisecond)
	q.Enqueue("late")

	select {
	case id := <-got:
		if id != "late" {
			t.Errorf("Dequeue = %q, want late", id)
		}
	case <-time.After(time.Second):
		t.Fatal("Dequeue never woke up after Enqueue")
	}
}

func TestQueueCloseUnblocksWaiters(t *testing.T) {
	q := newQueue()

	done := make(chan bool, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, ok := q.Dequeue()
			done <- ok
		}()
	}

	time.Sleep(20 * time.Millisecond)
	q.Close()

	for i := 0; i < 2; i++ {
		select {
		case ok := <-done:
			if ok {
				t.Error("Dequeue = ok after Close on empty queue")
			}
		case <-time.After(time.Second):
			t.Fatal("waiter never unblocked by Close")
		}
	}
}

func TestQueueClosedAbandonsPendingItems(t *testing.T) {
	q := newQueue()
	q.Enqueue("abandoned")
	q.Close()

	if _, ok := q.Dequeue(); ok {
		t.Error("Dequeue drained an item after Close")
	}
	if q.Enqueue("ignored"); q.Len() != 1 {
		t.Errorf("Len = %d, want 1 (Enqueue after Close is a no-op)", q.Len())
	}
}
