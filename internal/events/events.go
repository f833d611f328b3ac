// Package events publishes domain events to NATS for downstream consumers.
package events

import (
	"context"
	"time"
)

// Subjects for published events.
const (
	SubjectDocumentIndexed     = "rag.document.indexed"
	SubjectDocumentDeleted     = "rag.document.deleted"
	SubjectQueryAnswered       = "rag.query.answered"
	SubjectEvaluationCompleted = "rag.evaluation.completed"
	SubjectImprovementApplied  = "rag.improvement.applied"
	SubjectAgentCreated        = "rag.agent.created"
	SubjectAgentDeleted        = "rag.agent.deleted"
	SubjectActionStarted       = "rag.agent.action.started"
	SubjectActionCompleted     = "rag.agent.action.completed"
	SubjectActionFailed        = "rag.agent.action.failed"
	SubjectPlanCreated         = "rag.plan.created"
	SubjectPlanStepCompleted   = "rag.plan.step.completed"
	SubjectPlanExecuted        = "rag.plan.executed"
)

// Publisher delivers domain events. Implementations must tolerate
// being called concurrently.
type Publisher interface {
	// Publish sends an event on a subject. The event is serialized as JSON.
	Publish(ctx context.Context, subject string, event interface{}) error

	// Close flushes pending events and releases the connection.
	Close() error
}

// DocumentIndexed is emitted after a document is split and stored.
type DocumentIndexed struct {
	DocumentID string    `json:"document_id"`
	Collection string    `json:"collection"`
	Language   string    `json:"language"`
	ChunkCount int       `json:"chunk_count"`
	Timestamp  time.Time `json:"timestamp"`
}

// DocumentDeleted is emitted after a document is removed.
type DocumentDeleted struct {
	DocumentID string    `json:"document_id"`
	Collection string    `json:"collection"`
	Timestamp  time.Time `json:"timestamp"`
}

// QueryAnswered is emitted after a RAG query completes.
type QueryAnswered struct {
	Query       string    `json:"query"`
	Language    string    `json:"language"`
	SourceCount int       `json:"source_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// EvaluationCompleted is emitted after a response evaluation finishes.
type EvaluationCompleted struct {
	EvaluationID     string    `json:"evaluation_id"`
	OverallScore     float64   `json:"overall_score"`
	Passed           bool      `json:"passed"`
	NeedsImprovement bool      `json:"needs_improvement"`
	Timestamp        time.Time `json:"timestamp"`
}

// ImprovementApplied is emitted after an improvement iteration produces
// a revised response.
type ImprovementApplied struct {
	EvaluationID string    `json:"evaluation_id"`
	Iteration    int       `json:"iteration"`
	OverallScore float64   `json:"overall_score"`
	Timestamp    time.Time `json:"timestamp"`
}

// AgentLifecycle is emitted when an agent is created or deleted.
type AgentLifecycle struct {
	AgentID   string    `json:"agent_id"`
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
}

// ActionEvent is emitted as an agent action starts, completes, or fails.
type ActionEvent struct {
	AgentID    string    `json:"agent_id"`
	ActionID   string    `json:"action_id"`
	ActionType string    `json:"action_type"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// PlanCreated is emitted after a plan is generated for a task.
type PlanCreated struct {
	PlanID    string    `json:"plan_id"`
	AgentID   string    `json:"agent_id"`
	Task      string    `json:"task"`
	StepCount int       `json:"step_count"`
	Timestamp time.Time `json:"timestamp"`
}

// PlanStepCompleted is emitted after each plan step finishes.
type PlanStepCompleted struct {
	PlanID     string    `json:"plan_id"`
	AgentID    string    `json:"agent_id"`
	StepNumber int       `json:"step_number"`
	ActionType string    `json:"action_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// PlanExecuted is emitted after a multi-step plan finishes executing.
type PlanExecuted struct {
	PlanID    string    `json:"plan_id"`
	AgentID   string    `json:"agent_id"`
	StepCount int       `json:"step_count"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// NoopPublisher discards all events. Used when eventing is disabled.
type NoopPublisher struct{}

// Publish discards the event.
func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Close is a no-op.
func (NoopPublisher) Close() error { return nil }

var _ Publisher = NoopPublisher{}
