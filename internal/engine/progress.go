package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/seantiz/conveyor/internal/store"
)

// reporter is the progress context bound to a single executing job. It
// dual-writes every report: append to the job store for polling clients,
// then publish to the broker for live SSE subscribers.
type reporter struct {
	store  store.Store
	broker *Broker
	jobID  string
	logger *slog.Logger
}

// Report appends an intermediate result to the owning job.
func (r *reporter) Report(data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		r.logger.Error("marshal intermediate result", "job_id", r.jobID, "error", err)
		return
	}

	res, err := r.store.AppendIntermediate(context.Background(), r.jobID, raw)
	if err != nil {
		r.logger.Error("append intermediate result", "job_id", r.jobID, "error", err)
		return
	}
	if res == nil {
		// Job already evicted; nothing to publish.
		return
	}

	r.broker.Publish(r.jobID, *res)
}
