package builtin

import (
	"context"
	"errors"
	"time"

	"github.com/seantiz/conveyor/internal/handler"
)

// echoDelay simulates the brief processing step of the echo job.
const echoDelay = 500 * time.Millisecond

// EchoRequest is the payload for the echo job.
type EchoRequest struct {
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// EchoResult is the final result of the echo job.
type EchoResult struct {
	Status       string            `json:"status"`
	Message      string            `json:"message"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	EchoComplete bool              `json:"echo_complete"`
}

func echoDefinition() handler.Definition[EchoRequest] {
	return handler.Definition[EchoRequest]{
		Type: TypeEcho,
		Run:  runEcho,
	}
}

// runEcho returns the submitted message. Useful for exercising the job system.
func runEcho(ctx context.Context, req EchoRequest, progress handler.Reporter) (any, error) {
	if req.Message == "" {
		return nil, errors.New("message is required")
	}

	progress.Report(map[string]string{
		"status":  "processing",
		"message": "echoing payload",
	})

	if err := sleep(ctx, echoDelay); err != nil {
		return nil, err
	}

	return EchoResult{
		Status:       "success",
		Message:      req.Message,
		Metadata:     req.Metadata,
		EchoComplete: true,
	}, nil
}
