package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/seantiz/conveyor/internal/handler"
	"github.com/seantiz/conveyor/internal/model"
	"github.com/seantiz/conveyor/internal/store"
)

// Defaults for the worker pool and retention sweep.
const (
	DefaultWorkers       = 10
	DefaultRetention     = time.Hour
	DefaultSweepInterval = 5 * time.Minute
)

// ErrUnknownJobType is returned by Submit when no handler is registered for
// the requested job type. The submission is rejected before any state is
// created.
var ErrUnknownJobType = errors.New("unknown job type")

// Engine orchestrates asynchronous job execution: idempotent submission, the
// worker pool, and the retention sweeper.
type Engine struct {
	store    store.Store
	registry *handler.Registry
	logger   *slog.Logger
	broker   *Broker
	queue    *queue

	workers       int
	retention     time.Duration
	sweepInterval time.Duration

	baseCtx context.Context
	cancel  context.CancelFunc
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithRetention sets how long terminal jobs are kept before eviction.
func WithRetention(d time.Duration) Option {
	return func(e *Engine) { e.retention = d }
}

// WithSweepInterval sets how often the retention sweep runs.
func WithSweepInterval(d time.Duration) Option {
	return func(e *Engine) { e.sweepInterval = d }
}

// New creates an execution engine. Start must be called before submitted
// jobs are executed.
func New(s store.Store, reg *handler.Registry, logger *slog.Logger, opts ...Option) *Engine {
	baseCtx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		store:         s,
		registry:      reg,
		logger:        logger,
		broker:        NewBroker(),
		queue:         newQueue(),
		workers:       DefaultWorkers,
		retention:     DefaultRetention,
		sweepInterval: DefaultSweepInterval,
		baseCtx:       baseCtx,
		cancel:        cancel,
		stopCh:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Broker returns the engine's progress broker for SSE subscription.
func (e *Engine) Broker() *Broker {
	return e.broker
}

// QueueDepth returns the number of job identifiers not yet dequeued.
func (e *Engine) QueueDepth() int {
	return e.queue.Len()
}

// Submit validates the job type, creates (or, for a replayed idempotency
// key, reuses) a job record, and enqueues newly created jobs for execution.
// It returns the job snapshot and whether the job was newly created.
func (e *Engine) Submit(ctx context.Context, jobType string, payload json.RawMessage, idempotencyKey string) (*model.Job, bool, error) {
	if !e.registry.CanHandle(jobType) {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownJobType, jobType)
	}

	j := &model.Job{
		ID:        model.NewID(),
		Type:      jobType,
		Payload:   payload,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	created, isNew, err := e.store.CreateJob(ctx, j, idempotencyKey)
	if err != nil {
		return nil, false, fmt.Errorf("create job: %w", err)
	}

	if isNew {
		e.queue.Enqueue(created.ID)
		jobsSubmitted.WithLabelValues(jobType).Inc()
		e.logger.Info("job submitted", "job_id", created.ID, "job_type", jobType)
	} else {
		e.logger.Info("job submission replayed", "job_id", created.ID, "job_type", jobType)
	}

	return created, isNew, nil
}

// Start launches the worker pool and the retention sweeper. It returns
// immediately.
func (e *Engine) Start(_ context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return nil
	}
	e.running = true

	e.logger.Info("engine starting",
		"workers", e.workers,
		"retention", e.retention.String(),
		"sweep_interval", e.sweepInterval.String(),
	)

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.workerLoop(i)
	}

	e.wg.Add(1)
	go e.sweepLoop()

	return nil
}

// Stop shuts the engine down: the queue is closed, workers finish their
// current job, and the sweeper exits. If the context expires first, in-flight
// handler contexts are cancelled; interrupted jobs keep whatever state was
// last written (typically still running) and are never retried or marked
// failed by the shutdown path.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return nil
	}
	e.running = false
	e.mu.Unlock()

	e.logger.Info("engine stopping")

	e.queue.Close()
	close(e.stopCh)

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("engine stopped")
	case <-ctx.Done():
		e.logger.Warn("engine shutdown timed out, cancelling in-flight jobs")
		e.cancel()
		<-done
	}

	return nil
}

// workerLoop is run by each worker goroutine: dequeue, execute, repeat.
// A worker processes one job fully before dequeuing the next.
func (e *Engine) workerLoop(workerID int) {
	defer e.wg.Done()

	e.logger.Debug("worker started", "worker", workerID)
	for {
		id, ok := e.queue.Dequeue()
		if !ok {
			e.logger.Debug("worker stopped", "worker", workerID)
			return
		}
		e.runJob(workerID, id)
	}
}

// runJob executes the job lifecycle: pending -> running -> completed/failed.
func (e *Engine) runJob(workerID int, id string) {
	// Close the progress stream when execution finishes, regardless of outcome.
	defer e.broker.Close(id)

	j, err := e.store.GetJob(e.baseCtx, id)
	if errors.Is(err, store.ErrNotFound) {
		// Can only happen when retention is misconfigured to be shorter than
		// queue latency; log and move on.
		e.logger.Warn("dequeued job already evicted", "worker", workerID, "job_id", id)
		return
	}
	if err != nil {
		e.logger.Error("load dequeued job", "worker", workerID, "job_id", id, "error", err)
		return
	}

	if err := e.store.UpdateJobStatus(e.baseCtx, id, model.StatusRunning); err != nil {
		e.logger.Error("transition to running", "job_id", id, "error", err)
		e.failJob(id, j.Type, fmt.Sprintf("failed to start: %v", err))
		return
	}

	// Submission already validated capability, so a miss here is a
	// registry/queue consistency bug. Fatal for this job only.
	h, ok := e.registry.Resolve(j.Type)
	if !ok {
		e.logger.Error("no handler for dequeued job", "job_id", id, "job_type", j.Type)
		e.failJob(id, j.Type, fmt.Sprintf("no handler registered for type %q", j.Type))
		return
	}

	e.logger.Info("job started", "worker", workerID, "job_id", id, "job_type", j.Type)
	start := time.Now()

	result, err := e.safeExecute(h, j)
	jobDuration.WithLabelValues(j.Type).Observe(time.Since(start).Seconds())

	if err != nil {
		if e.baseCtx.Err() != nil {
			// Shutdown cancelled the handler. The job keeps whatever state
			// was last written; it is not marked failed and not retried.
			e.logger.Warn("job interrupted by shutdown", "job_id", id, "job_type", j.Type)
			return
		}
		e.failJob(id, j.Type, fmt.Sprintf("handler error: %v", err))
		e.logger.Info("job failed",
			"worker", workerID,
			"job_id", id,
			"job_type", j.Type,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
		)
		return
	}

	raw, err := json.Marshal(result)
	if err != nil {
		e.failJob(id, j.Type, fmt.Sprintf("encode result: %v", err))
		return
	}

	if err := e.store.CompleteJob(e.baseCtx, id, raw); err != nil {
		e.logger.Error("complete job", "job_id", id, "error", err)
		return
	}

	jobsCompleted.WithLabelValues(j.Type).Inc()
	e.logger.Info("job completed",
		"worker", workerID,
		"job_id", id,
		"job_type", j.Type,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// safeExecute invokes the handler with a progress reporter bound to the job.
// A handler panic is captured as a failure; it never crashes the worker.
func (e *Engine) safeExecute(h handler.Handler, j *model.Job) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panic", "job_id", j.ID, "job_type", j.Type, "panic", r)
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()

	progress := &reporter{
		store:  e.store,
		broker: e.broker,
		jobID:  j.ID,
		logger: e.logger,
	}
	return h.Execute(e.baseCtx, j.Payload, progress)
}

// failJob records an error summary and marks the job failed.
func (e *Engine) failJob(id, jobType, msg string) {
	if err := e.store.FailJob(e.baseCtx, id, msg); err != nil {
		e.logger.Error("fail job", "job_id", id, "error", err)
		return
	}
	jobsFailed.WithLabelValues(jobType).Inc()
}
