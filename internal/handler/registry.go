package handler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrDuplicateHandler is returned when a job type is registered twice.
// Re-registration is a configuration error, not a runtime event.
var ErrDuplicateHandler = errors.New("handler already registered")

// Registry maps job types to handlers. It is populated once at process
// startup and consulted at submission and execution time.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register installs a handler under the given job type.
func (r *Registry) Register(jobType string, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.handlers[jobType]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateHandler, jobType)
	}
	r.handlers[jobType] = h
	return nil
}

// Resolve returns the handler for the given job type.
func (r *Registry) Resolve(jobType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[jobType]
	return h, ok
}

// CanHandle reports whether a handler is registered for the job type.
func (r *Registry) CanHandle(jobType string) bool {
	_, ok := r.Resolve(jobType)
	return ok
}

// Types returns all registered job types, sorted for a stable API response.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for jobType := range r.handlers {
		types = append(types, jobType)
	}
	sort.Strings(types)
	return types
}
