package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Handler executes one action type against an agent. Parameters arrive
// as decoded JSON, so numbers are float64.
type Handler func(ctx context.Context, agent *Agent, params map[string]interface{}) (interface{}, error)

// Registry maps action types to handlers. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	metadata map[string]map[string]interface{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		metadata: make(map[string]map[string]interface{}),
	}
}

// Register binds a handler to an action type. Re-registering a type
// replaces the previous handler.
func (r *Registry) Register(actionType string, handler Handler, metadata map[string]interface{}) error {
	if actionType == "" {
		return fmt.Errorf("action type cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for %s cannot be nil", actionType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[actionType] = handler
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	r.metadata[actionType] = metadata
	return nil
}

// Get returns the handler for an action type.
func (r *Registry) Get(actionType string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[actionType]
	return h, ok
}

// Metadata returns the metadata registered with an action type.
func (r *Registry) Metadata(actionType string) map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.metadata[actionType]
}

// List returns all registered action types in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsRegistered reports whether an action type has a handler.
func (r *Registry) IsRegistered(actionType string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[actionType]
	return ok
}
