package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/agent"
	"github.com/temafey/rag-vector-doc-claude/internal/events"
	"github.com/temafey/rag-vector-doc-claude/internal/llm"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
)

var tracer = otel.Tracer("ragd.planner")

const planningPrompt = `Create a step-by-step plan to complete the following task:

Task: %[1]s

Available actions:
%[2]s

Constraints:
%[3]s

Create a detailed plan with numbered steps. Each step should include:
1. The action to execute (must be one of the available actions)
2. A description of what this step accomplishes
3. Parameters required for the action
4. Dependencies (which steps must be completed before this one)

Respond in the following JSON format:
` + "```json" + `
{
  "steps": [
    {
      "step_number": 1,
      "action_type": "action_name",
      "description": "What this step does",
      "parameters": {"param1": "value1", "param2": "value2"},
      "dependencies": []
    }
  ]
}
` + "```"

// planSpec mirrors the JSON the planning prompt asks for.
type planSpec struct {
	Steps []stepSpec `json:"steps"`
}

type stepSpec struct {
	StepNumber   int                    `json:"step_number"`
	ActionType   string                 `json:"action_type"`
	Description  string                 `json:"description"`
	Parameters   map[string]interface{} `json:"parameters"`
	Dependencies []int                  `json:"dependencies"`
}

// Service plans tasks with an LLM and executes them step by step.
type Service struct {
	agents    *agent.Service
	client    llm.Client
	repo      *Repository
	publisher events.Publisher
	logger    *logging.Logger
}

// NewService creates a planner.
func NewService(agents *agent.Service, client llm.Client, repo *Repository, publisher events.Publisher, logger *logging.Logger) (*Service, error) {
	if agents == nil {
		return nil, fmt.Errorf("agent service is required")
	}
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
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
		agents:    agents,
		client:    client,
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// GetPlan returns a stored plan by ID.
func (s *Service) GetPlan(id string) (*Plan, error) {
	return s.repo.Get(id)
}

// PlansByAgent returns the plans created for an agent.
func (s *Service) PlansByAgent(agentID string) []*Plan {
	return s.repo.ByAgent(agentID)
}

// CreatePlan asks the LLM for a step-by-step plan using the registered
// action types. An unparseable plan is an error.
func (s *Service) CreatePlan(ctx context.Context, ag *agent.Agent, task string, constraints []string) (*Plan, error) {
	ctx, span := tracer.Start(ctx, "planner.CreatePlan")
	defer span.End()

	if task == "" {
		return nil, fmt.Errorf("task cannot be empty")
	}

	span.SetAttributes(attribute.String("agent_id", ag.ID))

	actions := s.agents.AvailableActions()
	actionLines := make([]string, len(actions))
	for i, a := range actions {
		actionLines[i] = "- " + a
	}

	constraintLines := make([]string, len(constraints))
	for i, c := range constraints {
		constraintLines[i] = "- " + c
	}
	constraintText := strings.Join(constraintLines, "\n")
	if constraintText == "" {
		constraintText = "- No specific constraints"
	}

	prompt := fmt.Sprintf(planningPrompt, task, strings.Join(actionLines, "\n"), constraintText)

	completion, err := s.client.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("planning call failed: %w", err)
	}

	doc, err := llm.ExtractJSON(completion)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("no plan in planner output: %w", err)
	}

	var spec planSpec
	if err := json.Unmarshal([]byte(doc), &spec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	if len(spec.Steps) == 0 {
		return nil, fmt.Errorf("planner produced no steps")
	}

	plan := NewPlan(ag.ID, task)
	for _, step := range spec.Steps {
		plan.AddStep(step.ActionType, step.Description, step.Parameters, step.Dependencies)
	}
	stepCount := plan.StepCount()
	s.repo.Save(plan)

	ag.State.SetMemory("current_plan", plan.ID)

	s.logger.Info(ctx, "plan created",
		zap.String("plan_id", plan.ID),
		zap.String("agent_id", ag.ID),
		zap.Int("steps", stepCount),
	)

	s.publish(ctx, events.SubjectPlanCreated, events.PlanCreated{
		PlanID:    plan.ID,
		AgentID:   ag.ID,
		Task:      task,
		StepCount: stepCount,
		Timestamp: time.Now().UTC(),
	})

	span.SetAttributes(attribute.Int("steps", stepCount))
	span.SetStatus(codes.Ok, "success")
	return plan, nil
}

// ExecutionResult summarizes one plan run.
type ExecutionResult struct {
	PlanID         string              `json:"plan_id"`
	Task           string              `json:"task"`
	Status         PlanStatus          `json:"status"`
	CompletedSteps []int               `json:"completed_steps"`
	Results        map[int]interface{} `json:"results"`
}

// ExecutePlan runs ready steps one at a time until the plan completes
// or fails. Pending steps whose dependencies can never complete mark
// the plan failed.
func (s *Service) ExecutePlan(ctx context.Context, ag *agent.Agent, plan *Plan) (*ExecutionResult, error) {
	ctx, span := tracer.Start(ctx, "planner.ExecutePlan")
	defer span.End()

	span.SetAttributes(
		attribute.String("plan_id", plan.ID),
		attribute.String("agent_id", ag.ID),
	)

	plan.begin()
	result := &ExecutionResult{
		PlanID:  plan.ID,
		Task:    plan.Task,
		Results: make(map[int]interface{}),
	}

	status := PlanInProgress
	for status == PlanInProgress {
		var step *Step
		// claimNextStep settles the plan when nothing is ready:
		// completed if every step is done, failed when remaining steps
		// are blocked by a dependency cycle or a dependency that can no
		// longer complete.
		step, status = plan.claimNextStep()
		if step == nil {
			break
		}

		action, err := s.agents.ExecuteAction(ctx, ag, step.ActionType, step.Parameters)
		if err != nil {
			plan.failStep(step, err)
			status = PlanFailed
			s.logger.Warn(ctx, "plan step failed",
				zap.String("plan_id", plan.ID),
				zap.Int("step", step.Number),
				zap.String("action_type", step.ActionType),
				zap.Error(err),
			)
			break
		}

		plan.completeStep(step, action.Result)
		result.CompletedSteps = append(result.CompletedSteps, step.Number)
		result.Results[step.Number] = action.Result

		s.publish(ctx, events.SubjectPlanStepCompleted, events.PlanStepCompleted{
			PlanID:     plan.ID,
			AgentID:    ag.ID,
			StepNumber: step.Number,
			ActionType: step.ActionType,
			Timestamp:  time.Now().UTC(),
		})
	}

	result.Status = status

	s.publish(ctx, events.SubjectPlanExecuted, events.PlanExecuted{
		PlanID:    plan.ID,
		AgentID:   ag.ID,
		StepCount: plan.StepCount(),
		Status:    string(status),
		Timestamp: time.Now().UTC(),
	})

	s.logger.Info(ctx, "plan executed",
		zap.String("plan_id", plan.ID),
		zap.String("status", string(status)),
		zap.Int("completed_steps", len(result.CompletedSteps)),
	)

	span.SetAttributes(attribute.String("status", string(status)))
	if status == PlanFailed {
		span.SetStatus(codes.Error, "plan failed")
	} else {
		span.SetStatus(codes.Ok, "success")
	}
	return result, nil
}

// TaskOutcome is the result of a planned task.
type TaskOutcome struct {
	Response interface{}      `json:"response"`
	Plan     *Plan            `json:"plan"`
	Result   *ExecutionResult `json:"result"`
}

// ProcessTask plans a task and executes the plan. The result of the
// highest-numbered completed step is taken as the response.
func (s *Service) ProcessTask(ctx context.Context, ag *agent.Agent, task string, constraints []string) (*TaskOutcome, error) {
	ctx, span := tracer.Start(ctx, "planner.ProcessTask")
	defer span.End()

	plan, err := s.CreatePlan(ctx, ag, task, constraints)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	result, err := s.ExecutePlan(ctx, ag, plan)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if result.Status == PlanFailed {
		err := fmt.Errorf("plan %s failed after %d steps", plan.ID, len(result.CompletedSteps))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var response interface{}
	var finalStep int
	for _, n := range result.CompletedSteps {
		if n > finalStep {
			finalStep = n
			response = result.Results[n]
		}
	}

	span.SetStatus(codes.Ok, "success")
	return &TaskOutcome{
		Response: response,
		Plan:     plan,
		Result:   result,
	}, nil
}

func (s *Service) publish(ctx context.Context, subject string, event interface{}) {
	if err := s.publisher.Publish(ctx, subject, event); err != nil {
		s.logger.Warn(ctx, "planner event not published",
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}
