package evaluation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
	"github.com/temafey/rag-vector-doc-claude/internal/events"
)

type capturingPublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads []interface{}
}

func (p *capturingPublisher) Publish(_ context.Context, subject string, event interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, event)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func improverOutput(revision string) string {
	return "```json\n" +
		`{"suggestions": [{"criterion": "completeness", "suggestion": "Cover the whole question", "priority": 7}]}` +
		"\n```\n\n" + revision
}

func newTestLoop(t *testing.T, cfg config.QualityConfig, client *scriptedLLM, publisher events.Publisher) *Loop {
	t.Helper()
	policy, err := NewPolicy(cfg)
	require.NoError(t, err)
	evaluator, err := NewEvaluator(client, policy, nil)
	require.NoError(t, err)
	var improver *Improver
	if cfg.ImproveEnabled && cfg.MaxIterations > 0 {
		improver, err = NewImprover(client, nil)
		require.NoError(t, err)
	}
	loop, err := NewLoop(evaluator, improver, policy, publisher, nil)
	require.NoError(t, err)
	return loop
}

func TestLoop_PassesFirstTry(t *testing.T) {
	client := &scriptedLLM{responses: passingRound()}
	publisher := &capturingPublisher{}
	loop := newTestLoop(t, defaultQualityConfig(), client, publisher)

	result, err := loop.Run(context.Background(), "query", "a good answer", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Iterations)
	assert.False(t, result.Improved)
	assert.Equal(t, "a good answer", result.FinalResponse)
	require.Len(t, result.Evaluations, 1)
	assert.Empty(t, result.Attempts)
	assert.False(t, result.FinalEvaluation().NeedsImprovement)

	assert.Equal(t, []string{events.SubjectEvaluationCompleted}, publisher.subjects)
}

func TestLoop_ImprovesThenPasses(t *testing.T) {
	responses := failingRound()
	responses = append(responses, improverOutput("a fuller answer"))
	responses = append(responses, passingRound()...)
	client := &scriptedLLM{responses: responses}
	publisher := &capturingPublisher{}
	loop := newTestLoop(t, defaultQualityConfig(), client, publisher)

	result, err := loop.Run(context.Background(), "query", "a short answer", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.True(t, result.Improved)
	assert.Equal(t, "a fuller answer", result.FinalResponse)
	require.Len(t, result.Evaluations, 2)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, 1, result.Attempts[0].Iteration)
	assert.Equal(t, "a fuller answer", result.Attempts[0].Response)
	assert.False(t, result.FinalEvaluation().NeedsImprovement)

	assert.Equal(t, []string{
		events.SubjectEvaluationCompleted,
		events.SubjectImprovementApplied,
		events.SubjectEvaluationCompleted,
	}, publisher.subjects)
}

func TestLoop_StopsAtIterationCap(t *testing.T) {
	cfg := defaultQualityConfig()
	cfg.MaxIterations = 1

	responses := failingRound()
	responses = append(responses, improverOutput("still not enough"))
	responses = append(responses, failingRound()...)
	client := &scriptedLLM{responses: responses}
	loop := newTestLoop(t, cfg, client, &capturingPublisher{})

	result, err := loop.Run(context.Background(), "query", "a short answer", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Iterations)
	assert.True(t, result.Improved)
	assert.Equal(t, "still not enough", result.FinalResponse)
	require.Len(t, result.Evaluations, result.Iterations+1)
	assert.True(t, result.FinalEvaluation().NeedsImprovement)
}

func TestLoop_ImprovementDisabled(t *testing.T) {
	cfg := defaultQualityConfig()
	cfg.ImproveEnabled = false

	client := &scriptedLLM{responses: failingRound()}
	publisher := &capturingPublisher{}
	loop := newTestLoop(t, cfg, client, publisher)

	result, err := loop.Run(context.Background(), "query", "a short answer", nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Iterations)
	assert.False(t, result.Improved)
	assert.Equal(t, "a short answer", result.FinalResponse)
	require.Len(t, result.Evaluations, 1)
	assert.True(t, result.FinalEvaluation().NeedsImprovement)
	assert.Equal(t, []string{events.SubjectEvaluationCompleted}, publisher.subjects)
}

func TestLoop_EvaluateErrorPropagates(t *testing.T) {
	judgeErr := errors.New("model overloaded")
	client := &scriptedLLM{err: judgeErr}
	loop := newTestLoop(t, defaultQualityConfig(), client, nil)

	_, err := loop.Run(context.Background(), "query", "answer", nil)
	assert.ErrorIs(t, err, judgeErr)
}

func TestLoop_ImproveErrorPropagates(t *testing.T) {
	// Improver output with suggestions but no revised text.
	responses := failingRound()
	responses = append(responses, "```json\n{\"suggestions\": [{\"criterion\": \"relevance\", \"suggestion\": \"x\", \"priority\": 1}]}\n```")
	client := &scriptedLLM{responses: responses}
	loop := newTestLoop(t, defaultQualityConfig(), client, nil)

	_, err := loop.Run(context.Background(), "query", "a short answer", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no revised response")
}

func TestNewLoop_Validation(t *testing.T) {
	policy, err := NewPolicy(defaultQualityConfig())
	require.NoError(t, err)
	evaluator, err := NewEvaluator(&scriptedLLM{}, policy, nil)
	require.NoError(t, err)

	_, err = NewLoop(nil, nil, policy, nil, nil)
	assert.Error(t, err)

	_, err = NewLoop(evaluator, nil, nil, nil, nil)
	assert.Error(t, err)

	// Improver required while improvement is enabled.
	_, err = NewLoop(evaluator, nil, policy, nil, nil)
	assert.Error(t, err)

	disabled := defaultQualityConfig()
	disabled.ImproveEnabled = false
	disabledPolicy, err := NewPolicy(disabled)
	require.NoError(t, err)
	loop, err := NewLoop(evaluator, nil, disabledPolicy, nil, nil)
	require.NoError(t, err)
	assert.NotNil(t, loop)
}
