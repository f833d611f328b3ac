package evaluation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/events"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
)

// Loop runs the evaluate-improve cycle until the response passes the
// policy or the iteration cap is reached.
//
// The cycle always ends with an evaluation, so the reported scores
// describe the final response. A response that still fails after the
// last allowed iteration is returned as-is with NeedsImprovement set.
type Loop struct {
	evaluator *Evaluator
	improver  *Improver
	policy    *Policy
	publisher events.Publisher
	logger    *logging.Logger
}

// NewLoop creates an improvement loop.
func NewLoop(evaluator *Evaluator, improver *Improver, policy *Policy, publisher events.Publisher, logger *logging.Logger) (*Loop, error) {
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is required")
	}
	if policy.ImproveEnabled && policy.MaxIterations > 0 && improver == nil {
		return nil, fmt.Errorf("improver is required when improvement is enabled")
	}
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Loop{
		evaluator: evaluator,
		improver:  improver,
		policy:    policy,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Run evaluates a response and improves it while it fails the policy.
// At most policy.MaxIterations improvements are attempted; the returned
// result always carries one more evaluation than improvements made.
func (l *Loop) Run(ctx context.Context, query, response string, contextChunks []string) (*LoopResult, error) {
	ctx, span := tracer.Start(ctx, "evaluation.Loop")
	defer span.End()

	current := response
	result := &LoopResult{FinalResponse: response}

	for {
		eval, err := l.evaluator.Evaluate(ctx, query, current, contextChunks)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("iteration %d: %w", result.Iterations, err)
		}
		result.Evaluations = append(result.Evaluations, eval)

		l.publishEvaluation(ctx, eval)

		if !eval.NeedsImprovement {
			break
		}
		if !l.policy.ImproveEnabled || result.Iterations >= l.policy.MaxIterations {
			l.logger.Warn(ctx, "response still below quality thresholds",
				zap.String("evaluation_id", eval.ID),
				zap.Float64("overall_score", eval.OverallScore),
				zap.Int("iterations", result.Iterations),
			)
			break
		}

		improvement, err := l.improver.Improve(ctx, eval)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("improving after iteration %d: %w", result.Iterations, err)
		}

		result.Iterations++
		result.Improved = true
		current = improvement.ImprovedResponse
		result.Attempts = append(result.Attempts, ImprovementAttempt{
			Iteration:   result.Iterations,
			Response:    current,
			Evaluation:  eval,
			Improvement: improvement,
		})

		l.publishImprovement(ctx, improvement, result.Iterations, eval.OverallScore)
	}

	result.FinalResponse = current

	final := result.FinalEvaluation()
	span.SetAttributes(
		attribute.Int("iterations", result.Iterations),
		attribute.Bool("improved", result.Improved),
		attribute.Float64("final_score", final.OverallScore),
	)
	span.SetStatus(codes.Ok, "success")

	return result, nil
}

func (l *Loop) publishEvaluation(ctx context.Context, eval *Result) {
	err := l.publisher.Publish(ctx, events.SubjectEvaluationCompleted, events.EvaluationCompleted{
		EvaluationID:     eval.ID,
		OverallScore:     eval.OverallScore,
		Passed:           !eval.NeedsImprovement,
		NeedsImprovement: eval.NeedsImprovement,
		Timestamp:        time.Now().UTC(),
	})
	if err != nil {
		l.logger.Warn(ctx, "evaluation event not published", zap.Error(err))
	}
}

func (l *Loop) publishImprovement(ctx context.Context, improvement *Improvement, iteration int, score float64) {
	err := l.publisher.Publish(ctx, events.SubjectImprovementApplied, events.ImprovementApplied{
		EvaluationID: improvement.EvaluationID,
		Iteration:    iteration,
		OverallScore: score,
		Timestamp:    time.Now().UTC(),
	})
	if err != nil {
		l.logger.Warn(ctx, "improvement event not published", zap.Error(err))
	}
}
