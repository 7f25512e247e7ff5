package builtin

import (
	"context"
	"errors"

	"github.com/seantiz/conveyor/internal/handler"
)

const (
	defaultDuration = 10.0 // seconds
	defaultStages   = 5
)

// LongRunningRequest is the payload for the long_running job.
type LongRunningRequest struct {
	// Duration is the total runtime in seconds; nil means the default.
	Duration *float64 `json:"duration,omitempty"`
	// Stages is the number of progress stages; zero means the default.
	Stages int `json:"stages,omitempty"`
}

// LongRunningResult is the final result of the long_running job.
type LongRunningResult struct {
	Status          string  `json:"status"`
	Duration        float64 `json:"duration"`
	StagesCompleted int     `json:"stages_completed"`
	Message         string  `json:"message"`
}

func longRunningDefinition() handler.Definition[LongRunningRequest] {
	return handler.Definition[LongRunningRequest]{
		Type: TypeLongRunning,
		Run:  runLongRunning,
	}
}

// runLongRunning simulates a multi-stage job, reporting percent progress at
// the start of each stage.
func runLongRunning(ctx context.Context, req LongRunningRequest, progress handler.Reporter) (any, error) {
	duration := defaultDuration
	if req.Duration != nil {
		if *req.Duration < 0 {
			return nil, errors.New("duration must not be negative")
		}
		duration = *req.Duration
	}

	stages := req.Stages
	if stages == 0 {
		stages = defaultStages
	}
	if stages < 0 {
		return nil, errors.New("stages must be positive")
	}

	stageDelay := seconds(duration / float64(stages))

	for stage := 1; stage <= stages; stage++ {
		progress.Report(map[string]any{
			"stage":            stage,
			"total_stages":     stages,
			"progress_percent": stage * 100 / stages,
			"status":           "running",
		})

		if err := sleep(ctx, stageDelay); err != nil {
			return nil, err
		}
	}

	return LongRunningResult{
		Status:          "success",
		Duration:        duration,
		StagesCompleted: stages,
		Message:         "long-running job completed",
	}, nil
}
