package planner

import (
	"errors"
	"sync"
)

// ErrPlanNotFound is returned when no plan exists with the given ID.
var ErrPlanNotFound = errors.New("plan not found")

// Repository stores plans in memory keyed by ID. Safe for concurrent use.
type Repository struct {
	mu    sync.RWMutex
	plans map[string]*Plan
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{plans: make(map[string]*Plan)}
}

// Save stores or replaces a plan.
func (r *Repository) Save(plan *Plan) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans[plan.ID] = plan
}

// Get returns the plan with the given ID.
func (r *Repository) Get(id string) (*Plan, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok {
		return nil, ErrPlanNotFound
	}
	return plan, nil
}

// ByAgent returns all plans created for an agent.
func (r *Repository) ByAgent(agentID string) []*Plan {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var plans []*Plan
	for _, p := range r.plans {
		if p.AgentID == agentID {
			plans = append(plans, p)
		}
	}
	return plans
}
