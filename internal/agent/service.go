package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/evaluation"
	"github.com/temafey/rag-vector-doc-claude/internal/events"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
)

var tracer = otel.Tracer("ragd.agent")

// Built-in action types ProcessQuery knows about.
const (
	ActionSearch   = "search"
	ActionGenerate = "generate"
	ActionEvaluate = "evaluate"
	ActionImprove  = "improve"
)

var (
	// ErrUnknownAction is returned when an action type has no handler.
	ErrUnknownAction = errors.New("unknown action type")
	// ErrEmptyQuery is returned when a query is blank.
	ErrEmptyQuery = errors.New("query cannot be empty")
)

// Service creates agents and runs their actions.
type Service struct {
	registry  *Registry
	repo      *Repository
	publisher events.Publisher
	logger    *logging.Logger
}

// NewService creates an agent service.
func NewService(registry *Registry, repo *Repository, publisher events.Publisher, logger *logging.Logger) (*Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("registry is required")
	}
	if repo == nil {
		repo = NewRepository()
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Service{
		registry:  registry,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// CreateAgent registers a new agent for a conversation.
func (s *Service) CreateAgent(ctx context.Context, name, description, conversationID string, config map[string]interface{}) (*Agent, error) {
	if name == "" {
		return nil, fmt.Errorf("agent name cannot be empty")
	}

	agent := New(name, description, conversationID, config)
	s.repo.Save(agent)

	s.logger.Info(ctx, "agent created",
		zap.String("agent_id", agent.ID),
		zap.String("name", name),
		zap.String("conversation_id", conversationID),
	)

	s.publish(ctx, events.SubjectAgentCreated, events.AgentLifecycle{
		AgentID:   agent.ID,
		Name:      agent.Name,
		Timestamp: time.Now().UTC(),
	})

	return agent, nil
}

// GetAgent returns an agent by ID.
func (s *Service) GetAgent(id string) (*Agent, error) {
	return s.repo.Get(id)
}

// ListAgents returns all agents.
func (s *Service) ListAgents() []*Agent {
	return s.repo.List()
}

// AgentsByConversation returns the agents bound to a conversation.
func (s *Service) AgentsByConversation(conversationID string) []*Agent {
	return s.repo.ByConversation(conversationID)
}

// DeleteAgent removes an agent.
func (s *Service) DeleteAgent(ctx context.Context, id string) error {
	agent, err := s.repo.Get(id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(id); err != nil {
		return err
	}

	s.publish(ctx, events.SubjectAgentDeleted, events.AgentLifecycle{
		AgentID:   agent.ID,
		Name:      agent.Name,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// AvailableActions returns the registered action types.
func (s *Service) AvailableActions() []string {
	return s.registry.List()
}

// ExecuteAction runs a registered handler and records the action in the
// agent's history. A failed handler leaves a failed action behind and
// returns it alongside the error.
func (s *Service) ExecuteAction(ctx context.Context, agent *Agent, actionType string, params map[string]interface{}) (*Action, error) {
	ctx, span := tracer.Start(ctx, "agent.ExecuteAction")
	defer span.End()

	span.SetAttributes(
		attribute.String("agent_id", agent.ID),
		attribute.String("action_type", actionType),
	)

	handler, ok := s.registry.Get(actionType)
	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	action := NewAction(actionType, params)
	action.Status = ActionRunning

	s.publish(ctx, events.SubjectActionStarted, events.ActionEvent{
		AgentID:    agent.ID,
		ActionID:   action.ID,
		ActionType: actionType,
		Timestamp:  time.Now().UTC(),
	})

	result, err := handler(ctx, agent, params)
	if err != nil {
		// The action enters the history only once settled, so recorded
		// actions never change under concurrent readers.
		action.Fail(err)
		agent.State.AddAction(action)
		s.publish(ctx, events.SubjectActionFailed, events.ActionEvent{
			AgentID:    agent.ID,
			ActionID:   action.ID,
			ActionType: actionType,
			Error:      err.Error(),
			Timestamp:  time.Now().UTC(),
		})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return action, fmt.Errorf("action %s: %w", actionType, err)
	}

	action.Complete(result)
	agent.State.AddAction(action)
	s.publish(ctx, events.SubjectActionCompleted, events.ActionEvent{
		AgentID:    agent.ID,
		ActionID:   action.ID,
		ActionType: actionType,
		Timestamp:  time.Now().UTC(),
	})

	s.logger.Debug(ctx, "action executed",
		zap.String("agent_id", agent.ID),
		zap.String("action_type", actionType),
	)

	span.SetStatus(codes.Ok, "success")
	return action, nil
}

// QueryOutcome is the result of an agent-processed query.
type QueryOutcome struct {
	Response   string             `json:"response"`
	Sources    interface{}        `json:"sources,omitempty"`
	Evaluation *evaluation.Result `json:"evaluation,omitempty"`
	Improved   bool               `json:"improved"`
	Iterations int                `json:"iterations"`
}

// ProcessQuery runs the full agent pipeline for a user query: search,
// generate, and, when an evaluate action is registered, the bounded
// evaluate-improve cycle. The final response reflects any improvements.
func (s *Service) ProcessQuery(ctx context.Context, agent *Agent, query string) (*QueryOutcome, error) {
	ctx, span := tracer.Start(ctx, "agent.ProcessQuery")
	defer span.End()

	if query == "" {
		return nil, ErrEmptyQuery
	}

	span.SetAttributes(attribute.String("agent_id", agent.ID))
	agent.State.SetMemory("last_query", query)

	searchAction, err := s.ExecuteAction(ctx, agent, ActionSearch, map[string]interface{}{
		"query": query,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	generateAction, err := s.ExecuteAction(ctx, agent, ActionGenerate, map[string]interface{}{
		"query":   query,
		"context": searchAction.Result,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	response, ok := generateAction.Result.(string)
	if !ok {
		err := fmt.Errorf("generate action returned %T, want string", generateAction.Result)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	outcome := &QueryOutcome{
		Response: response,
		Sources:  searchAction.Result,
	}

	if s.registry.IsRegistered(ActionEvaluate) {
		evalAction, err := s.ExecuteAction(ctx, agent, ActionEvaluate, map[string]interface{}{
			"query":    query,
			"response": response,
			"context":  searchAction.Result,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}

		if loopResult, ok := evalAction.Result.(*evaluation.LoopResult); ok {
			outcome.Response = loopResult.FinalResponse
			outcome.Improved = loopResult.Improved
			outcome.Iterations = loopResult.Iterations
			outcome.Evaluation = loopResult.FinalEvaluation()
		}
	}

	s.logger.Info(ctx, "agent query processed",
		zap.String("agent_id", agent.ID),
		zap.Bool("improved", outcome.Improved),
		zap.Int("iterations", outcome.Iterations),
	)

	span.SetAttributes(attribute.Bool("improved", outcome.Improved))
	span.SetStatus(codes.Ok, "success")
	return outcome, nil
}

func (s *Service) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn(ctx, "agent event not published",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
