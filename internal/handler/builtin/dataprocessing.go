package builtin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/seantiz/conveyor/internal/handler"
)

// defaultStepDelay is the pause between processing steps when the request
// does not specify one.
const defaultStepDelay = 1.0 // seconds

// DataProcessingRequest is the payload for the data_processing job.
type DataProcessingRequest struct {
	Items []string `json:"items"`
	// Delay between steps in seconds; nil means the default.
	Delay *float64 `json:"delay,omitempty"`
}

// DataProcessingResult is the final result of the data_processing job.
type DataProcessingResult struct {
	Status         string   `json:"status"`
	TotalProcessed int      `json:"total_processed"`
	Items          []string `json:"items"`
	Message        string   `json:"message"`
}

func dataProcessingDefinition() handler.Definition[DataProcessingRequest] {
	return handler.Definition[DataProcessingRequest]{
		Type: TypeDataProcessing,
		Run:  runDataProcessing,
	}
}

// runDataProcessing works through the submitted items in stages, reporting
// progress after each one.
func runDataProcessing(ctx context.Context, req DataProcessingRequest, progress handler.Reporter) (any, error) {
	if req.Items == nil {
		return nil, errors.New("items is required")
	}

	delaySec := defaultStepDelay
	if req.Delay != nil {
		if *req.Delay < 0 {
			return nil, errors.New("delay must not be negative")
		}
		delaySec = *req.Delay
	}
	delay := seconds(delaySec)

	progress.Report(map[string]any{
		"step":        "validation",
		"status":      "started",
		"total_items": len(req.Items),
	})
	if err := sleep(ctx, delay); err != nil {
		return nil, err
	}
	progress.Report(map[string]any{
		"step":        "validation",
		"status":      "completed",
		"valid_items": len(req.Items),
	})

	processed := make([]string, 0, len(req.Items))
	for i, item := range req.Items {
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		upper := strings.ToUpper(item)
		processed = append(processed, upper)

		progress.Report(map[string]any{
			"step":         "processing",
			"progress":     fmt.Sprintf("%d/%d", i+1, len(req.Items)),
			"current_item": upper,
		})
	}

	progress.Report(map[string]any{
		"step":   "finalization",
		"status": "started",
	})
	if err := sleep(ctx, delay); err != nil {
		return nil, err
	}

	return DataProcessingResult{
		Status:         "success",
		TotalProcessed: len(processed),
		Items:          processed,
		Message:        "all items processed successfully",
	}, nil
}
