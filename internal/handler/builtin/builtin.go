// Package builtin provides the job handlers shipped with the engine.
// Each handler declares a typed request struct and is installed through an
// explicit RegisterAll call at process startup.
package builtin

import (
	"context"
	"time"

	"github.com/seantiz/conveyor/internal/handler"
)

// Built-in job type identifiers.
const (
	TypeEcho           = "echo"
	TypeDataProcessing = "data_processing"
	TypeLongRunning    = "long_running"
)

// RegisterAll installs every built-in handler in the registry.
func RegisterAll(r *handler.Registry) error {
	if err := handler.Register(r, echoDefinition()); err != nil {
		return err
	}
	if err := handler.Register(r, dataProcessingDefinition()); err != nil {
		return err
	}
	return handler.Register(r, longRunningDefinition())
}

// sleep waits for d or until the context is cancelled. A non-positive d
// returns immediately.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// seconds converts a float second count into a Duration.
func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
