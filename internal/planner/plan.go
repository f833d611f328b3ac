// Package planner generates multi-step plans with an LLM and executes
// them through agent actions, honoring step dependencies.
package planner

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepStatus tracks a plan step through its lifecycle.
type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepInProgress StepStatus = "in-progress"
	StepCompleted  StepStatus = "completed"
	StepFailed     StepStatus = "failed"
	StepSkipped    StepStatus = "skipped"
)

// PlanStatus tracks a plan through its lifecycle.
type PlanStatus string

const (
	PlanCreated    PlanStatus = "created"
	PlanInProgress PlanStatus = "in-progress"
	PlanCompleted  PlanStatus = "completed"
	PlanFailed     PlanStatus = "failed"
)

// Step is one action in a plan. DependsOn lists step numbers that must
// complete before this step becomes ready.
type Step struct {
	ID          string                 `json:"id"`
	Number      int                    `json:"step_number"`
	ActionType  string                 `json:"action_type"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters,omitempty"`
	DependsOn   []int                  `json:"dependencies,omitempty"`
	Status      StepStatus             `json:"status"`
	Result      interface{}            `json:"result,omitempty"`
}

// ready reports whether every dependency is in the completed set.
func (s *Step) ready(completed map[int]bool) bool {
	for _, dep := range s.DependsOn {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// Plan is an ordered set of steps for completing a task. Steps and
// status are mutated only under the plan mutex, so a plan can be
// inspected while it executes.
type Plan struct {
	mu sync.Mutex

	ID        string     `json:"id"`
	AgentID   string     `json:"agent_id"`
	Task      string     `json:"task"`
	Steps     []*Step    `json:"steps"`
	Status    PlanStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// NewPlan creates an empty plan for a task.
func NewPlan(agentID, task string) *Plan {
	now := time.Now().UTC()
	return &Plan{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Task:      task,
		Status:    PlanCreated,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddStep appends a step. Step numbers are assigned sequentially from 1
// regardless of what the planning model emitted.
func (p *Plan) AddStep(actionType, description string, parameters map[string]interface{}, dependsOn []int) *Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	step := &Step{
		ID:          uuid.New().String(),
		Number:      len(p.Steps) + 1,
		ActionType:  actionType,
		Description: description,
		Parameters:  parameters,
		DependsOn:   dependsOn,
		Status:      StepPending,
	}
	p.Steps = append(p.Steps, step)
	p.UpdatedAt = time.Now().UTC()
	return step
}

// Step returns the step with the given number.
func (p *Plan) Step(number int) *Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.Steps {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// NextSteps returns pending steps whose dependencies are all completed
// or skipped.
func (p *Plan) NextSteps() []*Step {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextStepsLocked()
}

func (p *Plan) nextStepsLocked() []*Step {
	completed := make(map[int]bool, len(p.Steps))
	for _, s := range p.Steps {
		if s.Status == StepCompleted || s.Status == StepSkipped {
			completed[s.Number] = true
		}
	}

	var next []*Step
	for _, s := range p.Steps {
		if s.Status == StepPending && s.ready(completed) {
			next = append(next, s)
		}
	}
	return next
}

// CurrentStatus returns the plan status.
func (p *Plan) CurrentStatus() PlanStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Status
}

// StepCount returns the number of steps.
func (p *Plan) StepCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Steps)
}

// begin marks the plan in progress.
func (p *Plan) begin() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = PlanInProgress
	p.UpdatedAt = time.Now().UTC()
}

// claimNextStep picks the first ready pending step and marks it in
// progress. When no step is ready the plan settles: completed if every
// step is done, failed otherwise (a dependency cycle or a dependency
// that can no longer complete).
func (p *Plan) claimNextStep() (*Step, PlanStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Status != PlanInProgress {
		return nil, p.Status
	}

	next := p.nextStepsLocked()
	if len(next) == 0 {
		if p.allStepsDoneLocked() {
			p.Status = PlanCompleted
		} else {
			p.Status = PlanFailed
		}
		p.UpdatedAt = time.Now().UTC()
		return nil, p.Status
	}

	step := next[0]
	step.Status = StepInProgress
	p.UpdatedAt = time.Now().UTC()
	return step, PlanInProgress
}

// completeStep records a step result.
func (p *Plan) completeStep(step *Step, result interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	step.Status = StepCompleted
	step.Result = result
	p.UpdatedAt = time.Now().UTC()
}

// failStep marks the step and the whole plan failed.
func (p *Plan) failStep(step *Step, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	step.Status = StepFailed
	step.Result = err.Error()
	p.Status = PlanFailed
	p.UpdatedAt = time.Now().UTC()
}

// allStepsDone reports whether every step completed or was skipped.
func (p *Plan) allStepsDone() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allStepsDoneLocked()
}

func (p *Plan) allStepsDoneLocked() bool {
	for _, s := range p.Steps {
		if s.Status != StepCompleted && s.Status != StepSkipped {
			return false
		}
	}
	return true
}

// MarshalJSON serializes a consistent snapshot of the plan.
func (p *Plan) MarshalJSON() ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	type snapshot struct {
		ID        string     `json:"id"`
		AgentID   string     `json:"agent_id"`
		Task      string     `json:"task"`
		Steps     []*Step    `json:"steps"`
		Status    PlanStatus `json:"status"`
		CreatedAt time.Time  `json:"created_at"`
		UpdatedAt time.Time  `json:"updated_at"`
	}
	return json.Marshal(snapshot{
		ID:        p.ID,
		AgentID:   p.AgentID,
		Task:      p.Task,
		Steps:     p.Steps,
		Status:    p.Status,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	})
}
