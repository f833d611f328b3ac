package evaluation

import (
	"errors"
	"sync"
)

// ErrEvaluationNotFound is returned when no evaluation exists with the
// given ID.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// Repository stores evaluation results in memory keyed by ID. Safe for
// concurrent use.
type Repository struct {
	mu      sync.RWMutex
	results map[string]*Result
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{results: make(map[string]*Result)}
}

// Save stores or replaces an evaluation result.
func (r *Repository) Save(result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[result.ID] = result
}

// Get returns the evaluation with the given ID.
func (r *Repository) Get(id string) (*Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result, ok := r.results[id]
	if !ok {
		return nil, ErrEvaluationNotFound
	}
	return result, nil
}
