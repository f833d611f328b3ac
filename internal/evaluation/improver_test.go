package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvaluation() *Result {
	return &Result{
		ID:       "eval-1",
		Query:    "what is the capital of France?",
		Response: "France has many cities.",
		Context:  []string{"Paris is the capital of France."},
		Scores: map[Criterion]CriterionScore{
			CriterionRelevance:    {Criterion: CriterionRelevance, Score: 0.4, Reason: "does not name the capital"},
			CriterionCompleteness: {Criterion: CriterionCompleteness, Score: 0.3, Reason: "question left unanswered"},
		},
		OverallScore:     0.35,
		NeedsImprovement: true,
		FailingCriteria:  []Criterion{CriterionRelevance, CriterionCompleteness},
		CreatedAt:        time.Now().UTC(),
	}
}

func TestImprover_Improve(t *testing.T) {
	client := &scriptedLLM{responses: []string{"```json\n" +
		`{"suggestions": [{"criterion": "relevance", "suggestion": "Name the capital directly", "priority": 8}]}` +
		"\n```\n\nThe capital of France is Paris."}}
	improver, err := NewImprover(client, nil)
	require.NoError(t, err)

	improvement, err := improver.Improve(context.Background(), sampleEvaluation())
	require.NoError(t, err)

	assert.NotEmpty(t, improvement.ID)
	assert.Equal(t, "eval-1", improvement.EvaluationID)
	assert.Equal(t, "France has many cities.", improvement.OriginalResponse)
	assert.Equal(t, "The capital of France is Paris.", improvement.ImprovedResponse)
	require.Len(t, improvement.Suggestions, 1)
	assert.Equal(t, "relevance", improvement.Suggestions[0].Criterion)
	assert.Equal(t, 8, improvement.Suggestions[0].Priority)

	// The prompt carries the judge feedback for the failing criteria.
	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "relevance: 0.40 - does not name the capital")
	assert.Contains(t, client.prompts[0], "Paris is the capital of France.")
}

func TestImprover_NoSuggestionsBlock(t *testing.T) {
	client := &scriptedLLM{responses: []string{"The capital of France is Paris."}}
	improver, err := NewImprover(client, nil)
	require.NoError(t, err)

	improvement, err := improver.Improve(context.Background(), sampleEvaluation())
	require.NoError(t, err)

	assert.Equal(t, "The capital of France is Paris.", improvement.ImprovedResponse)
	require.Len(t, improvement.Suggestions, 1)
	assert.Equal(t, "general", improvement.Suggestions[0].Criterion)
}

func TestImprover_MalformedSuggestions(t *testing.T) {
	client := &scriptedLLM{responses: []string{"```json\n{\"verdict\": \"needs work\"}\n```\n\nA better answer."}}
	improver, err := NewImprover(client, nil)
	require.NoError(t, err)

	improvement, err := improver.Improve(context.Background(), sampleEvaluation())
	require.NoError(t, err)

	assert.Equal(t, "A better answer.", improvement.ImprovedResponse)
	require.Len(t, improvement.Suggestions, 1)
	assert.Equal(t, "general", improvement.Suggestions[0].Criterion)
}

func TestImprover_StripsFenceAroundRevision(t *testing.T) {
	client := &scriptedLLM{responses: []string{"```json\n" +
		`{"suggestions": [{"criterion": "completeness", "suggestion": "Answer fully", "priority": 6}]}` +
		"\n```\n\n```\nThe capital of France is Paris.\n```"}}
	improver, err := NewImprover(client, nil)
	require.NoError(t, err)

	improvement, err := improver.Improve(context.Background(), sampleEvaluation())
	require.NoError(t, err)

	assert.Equal(t, "The capital of France is Paris.", improvement.ImprovedResponse)
}

func TestImprover_EmptyRevision(t *testing.T) {
	client := &scriptedLLM{responses: []string{"```json\n" +
		`{"suggestions": [{"criterion": "relevance", "suggestion": "Be direct", "priority": 5}]}` +
		"\n```"}}
	improver, err := NewImprover(client, nil)
	require.NoError(t, err)

	_, err = improver.Improve(context.Background(), sampleEvaluation())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no revised response")
}

func TestImprover_CallFails(t *testing.T) {
	callErr := errors.New("model overloaded")
	improver, err := NewImprover(&scriptedLLM{err: callErr}, nil)
	require.NoError(t, err)

	_, err = improver.Improve(context.Background(), sampleEvaluation())
	assert.ErrorIs(t, err, callErr)
}

func TestImprover_NilEvaluation(t *testing.T) {
	improver, err := NewImprover(&scriptedLLM{}, nil)
	require.NoError(t, err)

	_, err = improver.Improve(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewImprover_RequiresClient(t *testing.T) {
	_, err := NewImprover(nil, nil)
	assert.Error(t, err)
}
