package agent

import (
	"errors"
	"sort"
	"sync"
)

// ErrAgentNotFound is returned when no agent exists with the given ID.
var ErrAgentNotFound = errors.New("agent not found")

// Repository stores agents in memory keyed by ID. Safe for concurrent use.
type Repository struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{agents: make(map[string]*Agent)}
}

// Save stores or replaces an agent.
func (r *Repository) Save(agent *Agent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.agents[agent.ID] = agent
}

// Get returns the agent with the given ID.
func (r *Repository) Get(id string) (*Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.agents[id]
	if !ok {
		return nil, ErrAgentNotFound
	}
	return agent, nil
}

// ByConversation returns all agents bound to a conversation, sorted by
// creation time.
func (r *Repository) ByConversation(conversationID string) []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var agents []*Agent
	for _, a := range r.agents {
		if a.State.ConversationID == conversationID {
			agents = append(agents, a)
		}
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].State.CreatedAt.Before(agents[j].State.CreatedAt)
	})
	return agents
}

// List returns all agents sorted by creation time.
func (r *Repository) List() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agents := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		agents = append(agents, a)
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].State.CreatedAt.Before(agents[j].State.CreatedAt)
	})
	return agents
}

// Delete removes an agent.
func (r *Repository) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.agents[id]; !ok {
		return ErrAgentNotFound
	}
	delete(r.agents, id)
	return nil
}
