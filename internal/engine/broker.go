package engine

import (
	"sync"

	"github.com/seantiz/conveyor/internal/model"
)

// subscriberBufferSize is the channel buffer for each progress subscriber.
// Results are dropped if a subscriber falls this far behind.
const subscriberBufferSize = 64

// Broker manages per-job progress streaming to subscribers.
// It is safe for concurrent use.
//
// Closed topics are retained as markers so that late subscribers (those
// subscribing after a job finishes) receive a closed channel instead of
// blocking forever. Markers live only as long as their job: the retention
// sweeper calls Remove alongside every store eviction, so the topic map
// stays bounded by the retention window.
type Broker struct {
	mu     sync.Mutex
	topics map[string]*progressTopic
}

type progressTopic struct {
	subs   map[int]chan model.IntermediateResult
	nextID int
	closed bool
}

// NewBroker creates a new progress broker.
func NewBroker() *Broker {
	return &Broker{
		topics: make(map[string]*progressTopic),
	}
}

// Subscribe returns a channel that receives intermediate results for the
// given job and an unsubscribe function. If the job has already finished
// (Close was called), the returned channel is immediately closed.
func (b *Broker) Subscribe(jobID string) (<-chan model.IntermediateResult, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[jobID]
	if !ok {
		t = &progressTopic{subs: make(map[int]chan model.IntermediateResult)}
		b.topics[jobID] = t
	}

	ch := make(chan model.IntermediateResult, subscriberBufferSize)
	if t.closed {
		close(ch)
		return ch, func() {}
	}

	id := t.nextID
	t.nextID++
	t.subs[id] = ch

	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(t.subs, id)
		// An open topic with no subscribers holds no state worth keeping;
		// dropping it covers subscriptions that raced a sweep eviction.
		if cur, ok := b.topics[jobID]; ok && cur == t && !t.closed && len(t.subs) == 0 {
			delete(b.topics, jobID)
		}
	}
}

// Publish sends an intermediate result to all subscribers of the given job.
// Results are dropped for subscribers whose buffers are full.
func (b *Broker) Publish(jobID string, res model.IntermediateResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[jobID]
	if !ok || t.closed {
		return
	}

	for _, ch := range t.subs {
		select {
		case ch <- res:
		default:
			// Drop for slow subscribers to avoid blocking execution.
		}
	}
}

// Close signals that no more results will be published for the given job.
// All subscriber channels are closed and future Subscribe calls return a
// closed channel.
func (b *Broker) Close(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[jobID]
	if !ok {
		// Create a closed marker so late subscribers get a closed channel.
		b.topics[jobID] = &progressTopic{subs: make(map[int]chan model.IntermediateResult), closed: true}
		return
	}

	t.closed = true
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
}

// Remove drops the topic for an evicted job, closed marker included. Any
// remaining subscriber channels are closed first.
func (b *Broker) Remove(jobID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[jobID]
	if !ok {
		return
	}
	for id, ch := range t.subs {
		close(ch)
		delete(t.subs, id)
	}
	delete(b.topics, jobID)
}
