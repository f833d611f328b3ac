// Package agent maintains conversational agents that execute registered
// actions and remember what they did.
package agent

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActionStatus tracks an action through its lifecycle.
type ActionStatus string

const (
	ActionPending   ActionStatus = "pending"
	ActionRunning   ActionStatus = "running"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
)

// Action records one operation performed by an agent.
type Action struct {
	ID          string                 `json:"id"`
	Type        string                 `json:"action_type"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	Status      ActionStatus           `json:"status"`
	Result      interface{}            `json:"result,omitempty"`
	Error       string                 `json:"error,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	CompletedAt *time.Time             `json:"completed_at,omitempty"`
}

// NewAction creates a pending action.
func NewAction(actionType string, params map[string]interface{}) *Action {
	return &Action{
		ID:         uuid.New().String(),
		Type:       actionType,
		Parameters: params,
		Status:     ActionPending,
		CreatedAt:  time.Now().UTC(),
	}
}

// Complete marks the action as finished with its result.
func (a *Action) Complete(result interface{}) {
	now := time.Now().UTC()
	a.Result = result
	a.Status = ActionCompleted
	a.CompletedAt = &now
}

// Fail marks the action as failed.
func (a *Action) Fail(err error) {
	now := time.Now().UTC()
	a.Error = err.Error()
	a.Status = ActionFailed
	a.CompletedAt = &now
}

// State is the mutable part of an agent: its memory and action history.
// State is safe for concurrent use; actions are appended to the history
// only after they finish, so recorded actions are immutable.
type State struct {
	mu sync.RWMutex

	ID             string                 `json:"id"`
	ConversationID string                 `json:"conversation_id"`
	Memory         map[string]interface{} `json:"memory"`
	Actions        []*Action              `json:"action_history"`
	CreatedAt      time.Time              `json:"created_at"`
	UpdatedAt      time.Time              `json:"updated_at"`
}

// NewState creates an empty state bound to a conversation.
func NewState(conversationID string) *State {
	now := time.Now().UTC()
	return &State{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Memory:         make(map[string]interface{}),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// AddAction appends an action to the history.
func (s *State) AddAction(a *Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Actions = append(s.Actions, a)
	s.UpdatedAt = time.Now().UTC()
}

// SetMemory stores a value under a key.
func (s *State) SetMemory(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Memory[key] = value
	s.UpdatedAt = time.Now().UTC()
}

// GetMemory reads a value by key.
func (s *State) GetMemory(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.Memory[key]
	return v, ok
}

// LastAction returns the most recent action, or nil for a fresh agent.
func (s *State) LastAction() *Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.Actions) == 0 {
		return nil
	}
	return s.Actions[len(s.Actions)-1]
}

// History returns a copy of the action history.
func (s *State) History() []*Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	actions := make([]*Action, len(s.Actions))
	copy(actions, s.Actions)
	return actions
}

// ActionsByType filters the history by action type.
func (s *State) ActionsByType(actionType string) []*Action {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var actions []*Action
	for _, a := range s.Actions {
		if a.Type == actionType {
			actions = append(actions, a)
		}
	}
	return actions
}

// MarshalJSON serializes a consistent snapshot of the state.
func (s *State) MarshalJSON() ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type snapshot struct {
		ID             string                 `json:"id"`
		ConversationID string                 `json:"conversation_id"`
		Memory         map[string]interface{} `json:"memory"`
		Actions        []*Action              `json:"action_history"`
		CreatedAt      time.Time              `json:"created_at"`
		UpdatedAt      time.Time              `json:"updated_at"`
	}
	return json.Marshal(snapshot{
		ID:             s.ID,
		ConversationID: s.ConversationID,
		Memory:         s.Memory,
		Actions:        s.Actions,
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	})
}

// Agent is a named actor bound to one conversation.
type Agent struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	State       *State                 `json:"state"`
	Config      map[string]interface{} `json:"config,omitempty"`
}

// New creates an agent with a fresh state.
func New(name, description, conversationID string, config map[string]interface{}) *Agent {
	if config == nil {
		config = make(map[string]interface{})
	}
	return &Agent{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		State:       NewState(conversationID),
		Config:      config,
	}
}
