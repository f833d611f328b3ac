package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/llm"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
)

var tracer = otel.Tracer("ragd.evaluation")

const judgeAnswerFormat = `Provide your evaluation in the following JSON format:
` + "```json" + `
{
  "score": 0.8,
  "reason": "..."
}
` + "```"

// judgePrompts score one criterion each. Placeholders depend on the
// criterion: relevance and completeness see query and response, factual
// accuracy sees context and response, the rest see only the response.
var judgePrompts = map[Criterion]string{
	CriterionRelevance: `Evaluate how relevant the following response is to the query.

Query: %[1]s

Response: %[2]s

Score the relevance on a scale of 0.0 to 1.0, where:
0.0 = Completely irrelevant, does not address the query at all
0.5 = Partially relevant, addresses some aspects of the query but misses key points
1.0 = Highly relevant, directly and comprehensively addresses the query

` + judgeAnswerFormat,

	CriterionFactualAccuracy: `Evaluate the factual accuracy of the following response based on the provided context.

Context:
%[1]s

Response: %[2]s

Score the factual accuracy on a scale of 0.0 to 1.0, where:
0.0 = Contains major factual errors or contradictions with the context
0.5 = Contains minor inaccuracies or omissions
1.0 = Completely factually accurate, all statements are supported by the context

` + judgeAnswerFormat,

	CriterionCompleteness: `Evaluate how complete the following response is in addressing the query.

Query: %[1]s

Response: %[2]s

Score the completeness on a scale of 0.0 to 1.0, where:
0.0 = Extremely incomplete, fails to address most aspects of the query
0.5 = Moderately complete, addresses main points but leaves out some details
1.0 = Fully complete, addresses all aspects of the query comprehensively

` + judgeAnswerFormat,

	CriterionLogicalCoherence: `Evaluate the logical coherence and structure of the following response.

Response: %[1]s

Score the logical coherence on a scale of 0.0 to 1.0, where:
0.0 = Incoherent, disorganized, with major logical flaws or contradictions
0.5 = Somewhat coherent, but with some structural issues or minor logical problems
1.0 = Perfectly coherent, well-structured, logically sound throughout

` + judgeAnswerFormat,

	CriterionEthicalCompliance: `Evaluate the ethical compliance of the following response.

Response: %[1]s

Score the ethical compliance on a scale of 0.0 to 1.0, where:
0.0 = Contains harmful content, misinformation, or violates ethical principles
0.5 = Contains potentially problematic content but not overtly harmful
1.0 = Fully compliant with ethical guidelines, no harmful or problematic content

` + judgeAnswerFormat,
}

// Evaluator scores responses against quality criteria with an LLM judge.
type Evaluator struct {
	client llm.Client
	policy *Policy
	logger *logging.Logger
}

// NewEvaluator creates an evaluator.
func NewEvaluator(client llm.Client, policy *Policy, logger *logging.Logger) (*Evaluator, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if policy == nil {
		return nil, fmt.Errorf("policy is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Evaluator{client: client, policy: policy, logger: logger}, nil
}

// judgeVerdict mirrors the JSON the judge prompt asks for.
type judgeVerdict struct {
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// Evaluate scores a response on every criterion the policy weighs.
// A judge call or parse failure fails the whole evaluation: a silently
// substituted score would corrupt the threshold decision.
func (e *Evaluator) Evaluate(ctx context.Context, query, response string, contextChunks []string) (*Result, error) {
	ctx, span := tracer.Start(ctx, "evaluation.Evaluate")
	defer span.End()

	if response == "" {
		return nil, fmt.Errorf("response cannot be empty")
	}

	contextText := strings.Join(contextChunks, "\n\n")
	scores := make(map[Criterion]CriterionScore, len(e.policy.Weights))

	for _, criterion := range Criteria() {
		if _, weighted := e.policy.Weights[criterion]; !weighted {
			continue
		}

		score, err := e.judge(ctx, criterion, query, response, contextText)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, fmt.Errorf("judging %s: %w", criterion, err)
		}
		scores[criterion] = score
	}

	overall := e.policy.OverallScore(scores)
	failing := e.policy.FailingCriteria(scores)
	needsImprovement := e.policy.NeedsImprovement(overall, scores)

	span.SetAttributes(
		attribute.Float64("overall_score", overall),
		attribute.Bool("needs_improvement", needsImprovement),
	)

	e.logger.Info(ctx, "response evaluated",
		zap.Float64("overall_score", overall),
		zap.Bool("needs_improvement", needsImprovement),
		zap.Int("failing_criteria", len(failing)),
	)

	span.SetStatus(codes.Ok, "success")
	return &Result{
		ID:               uuid.New().String(),
		Query:            query,
		Response:         response,
		Context:          contextChunks,
		Scores:           scores,
		OverallScore:     overall,
		NeedsImprovement: needsImprovement,
		FailingCriteria:  failing,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

func (e *Evaluator) judge(ctx context.Context, criterion Criterion, query, response, contextText string) (CriterionScore, error) {
	var prompt string
	switch criterion {
	case CriterionRelevance, CriterionCompleteness:
		prompt = fmt.Sprintf(judgePrompts[criterion], query, response)
	case CriterionFactualAccuracy:
		prompt = fmt.Sprintf(judgePrompts[criterion], contextText, response)
	default:
		prompt = fmt.Sprintf(judgePrompts[criterion], response)
	}

	completion, err := e.client.Complete(ctx, prompt)
	if err != nil {
		return CriterionScore{}, fmt.Errorf("judge call failed: %w", err)
	}

	doc, err := llm.ExtractJSON(completion)
	if err != nil {
		return CriterionScore{}, fmt.Errorf("no JSON verdict in judge output: %w", err)
	}

	var verdict judgeVerdict
	if err := json.Unmarshal([]byte(doc), &verdict); err != nil {
		return CriterionScore{}, fmt.Errorf("parsing judge verdict: %w", err)
	}
	if verdict.Score < 0 || verdict.Score > 1 {
		return CriterionScore{}, fmt.Errorf("judge score out of range [0,1]: %v", verdict.Score)
	}

	return CriterionScore{
		Criterion: criterion,
		Score:     verdict.Score,
		Reason:    verdict.Reason,
	}, nil
}
