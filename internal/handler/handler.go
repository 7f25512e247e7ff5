package handler

import (
	"context"
	"encoding/json"
	"fmt"
)

// Reporter is the progress context handed to an executing handler. It carries
// exactly one capability: appending an intermediate result to the owning job.
// It cannot alter job status.
type Reporter interface {
	Report(data any)
}

// Handler executes a job payload. A returned error marks the job failed; it
// is captured by the worker, never propagated to the caller that submitted
// the job.
type Handler interface {
	Execute(ctx context.Context, payload json.RawMessage, progress Reporter) (any, error)
}

// Func adapts a plain function to the Handler interface.
type Func func(ctx context.Context, payload json.RawMessage, progress Reporter) (any, error)

// Execute calls f.
func (f Func) Execute(ctx context.Context, payload json.RawMessage, progress Reporter) (any, error) {
	return f(ctx, payload, progress)
}

// Definition pairs a job type with a typed handler function. The raw payload
// is decoded into T before the handler runs, so each job type carries its own
// validated field set.
type Definition[T any] struct {
	Type string
	Run  func(ctx context.Context, req T, progress Reporter) (any, error)
}

// Register installs a typed definition in the registry. The generic handler
// is wrapped in a closure that JSON-decodes the payload into T.
//
// This is a package-level generic function because Go does not allow generic
// methods on non-generic receiver types.
func Register[T any](r *Registry, def Definition[T]) error {
	return r.Register(def.Type, Func(func(ctx context.Context, payload json.RawMessage, progress Reporter) (any, error) {
		var req T
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, fmt.Errorf("decode %q payload: %w", def.Type, err)
			}
		}
		return def.Run(ctx, req, progress)
	}))
}
