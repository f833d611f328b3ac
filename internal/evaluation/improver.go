package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/llm"
	"github.com/temafey/rag-vector-doc-claude/internal/logging"
)

const improvePrompt = `Improve the following response based on the evaluation feedback.

Query: %[1]s

Original Response: %[2]s

Context:
%[3]s

Evaluation:
%[4]s

Your task is to improve the response by addressing the issues identified in the evaluation.
Focus on fixing problems with relevance, factual accuracy, completeness, logical coherence, and ethical compliance.

First, provide specific improvement suggestions in the following JSON format:
` + "```json" + `
{
  "suggestions": [
    {
      "criterion": "relevance",
      "suggestion": "Focus more directly on answering the specific question asked",
      "priority": 8
    }
  ]
}
` + "```" + `

Then, provide an improved version of the response that addresses these suggestions.`

// Improver produces revised responses from evaluation feedback.
type Improver struct {
	client llm.Client
	logger *logging.Logger
}

// NewImprover creates an improver.
func NewImprover(client llm.Client, logger *logging.Logger) (*Improver, error) {
	if client == nil {
		return nil, fmt.Errorf("llm client is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Improver{client: client, logger: logger}, nil
}

// suggestionList mirrors the JSON block the improve prompt asks for.
type suggestionList struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// Improve asks the LLM to revise the evaluated response. The model
// output carries a suggestions JSON block followed by the improved text.
// Unparseable suggestions degrade to a generic one; a missing improved
// text is an error since there is nothing to continue the loop with.
func (i *Improver) Improve(ctx context.Context, eval *Result) (*Improvement, error) {
	ctx, span := tracer.Start(ctx, "evaluation.Improve")
	defer span.End()

	if eval == nil {
		return nil, fmt.Errorf("evaluation is required")
	}

	span.SetAttributes(attribute.String("evaluation_id", eval.ID))

	prompt := fmt.Sprintf(improvePrompt,
		eval.Query,
		eval.Response,
		strings.Join(eval.Context, "\n\n"),
		formatEvaluation(eval),
	)

	completion, err := i.client.Complete(ctx, prompt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("improvement call failed: %w", err)
	}

	suggestions, improved := i.parse(ctx, completion)
	if improved == "" {
		err := fmt.Errorf("improver returned no revised response")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	i.logger.Info(ctx, "response improved",
		zap.String("evaluation_id", eval.ID),
		zap.Int("suggestions", len(suggestions)),
	)

	span.SetStatus(codes.Ok, "success")
	return &Improvement{
		ID:               uuid.New().String(),
		EvaluationID:     eval.ID,
		OriginalResponse: eval.Response,
		ImprovedResponse: improved,
		Suggestions:      suggestions,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// parse splits the completion into suggestions and the improved text.
func (i *Improver) parse(ctx context.Context, completion string) ([]Suggestion, string) {
	doc, remainder, err := llm.ExtractJSONWithRemainder(completion)
	if err != nil {
		// No JSON at all: treat the whole completion as the revision.
		i.logger.Warn(ctx, "improver output had no suggestions block", zap.Error(err))
		return []Suggestion{genericSuggestion()}, stripFences(completion)
	}

	var list suggestionList
	if err := json.Unmarshal([]byte(doc), &list); err != nil || len(list.Suggestions) == 0 {
		return []Suggestion{genericSuggestion()}, stripFences(remainder)
	}

	return list.Suggestions, stripFences(remainder)
}

func genericSuggestion() Suggestion {
	return Suggestion{
		Criterion:  "general",
		Suggestion: "Improve the response based on evaluation feedback",
		Priority:   5,
	}
}

// formatEvaluation renders criterion scores as judge feedback lines.
func formatEvaluation(eval *Result) string {
	lines := make([]string, 0, len(eval.Scores))
	for _, criterion := range Criteria() {
		score, ok := eval.Scores[criterion]
		if !ok {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %.2f - %s", criterion, score.Score, score.Reason))
	}
	return strings.Join(lines, "\n")
}

// stripFences removes a wrapping markdown code fence from the text.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx >= 0 {
			text = text[idx+1:]
		} else {
			text = ""
		}
	}
	if strings.HasSuffix(text, "```") {
		text = text[:strings.LastIndex(text, "```")]
	}
	return strings.TrimSpace(text)
}
