package agent

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
	"github.com/temafey/rag-vector-doc-claude/internal/evaluation"
	"github.com/temafey/rag-vector-doc-claude/internal/language"
	"github.com/temafey/rag-vector-doc-claude/internal/rag"
	"github.com/temafey/rag-vector-doc-claude/internal/vectorstore"
)

// hashEmbedder produces deterministic unit vectors so identical text
// matches itself with similarity 1.0.
type hashEmbedder struct{}

func (hashEmbedder) embed(text string) []float32 {
	sum := sha256.Sum256([]byte(text))
	vec := make([]float32, 8)
	var norm float64
	for i := range vec {
		vec[i] = float32(sum[i]) + 1
		norm += float64(vec[i]) * float64(vec[i])
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

func (h hashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = h.embed(text)
	}
	return vectors, nil
}

func (h hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

// queueLLM returns scripted completions in order.
type queueLLM struct {
	mu        sync.Mutex
	responses []string
}

func (q *queueLLM) Complete(context.Context, string) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.responses) == 0 {
		return "", fmt.Errorf("unexpected llm call")
	}
	r := q.responses[0]
	q.responses = q.responses[1:]
	return r, nil
}

// staticGenerator answers with a fixed response.
type staticGenerator struct{ response string }

func (g staticGenerator) Generate(context.Context, string, []string, string) (string, error) {
	return g.response, nil
}

func passingVerdicts() []string {
	verdicts := make([]string, 5)
	for i := range verdicts {
		verdicts[i] = "```json\n{\"score\": 0.95, \"reason\": \"fine\"}\n```"
	}
	return verdicts
}

func builtinsFixture(t *testing.T) (*Service, *Agent) {
	t.Helper()

	store, err := vectorstore.NewChromemStore(vectorstore.ChromemConfig{
		Path:              t.TempDir(),
		DefaultCollection: "documents",
		VectorSize:        8,
	}, hashEmbedder{}, nil)
	require.NoError(t, err)

	_, err = store.AddDocuments(context.Background(), []vectorstore.Document{
		{ID: "doc-1_0", Content: "Paris is the capital of France.", Metadata: map[string]interface{}{"document_id": "doc-1"}},
		{ID: "doc-2_0", Content: "Berlin is the capital of Germany.", Metadata: map[string]interface{}{"document_id": "doc-2"}},
	})
	require.NoError(t, err)

	ragService, err := rag.NewService(store, language.NewDetector(nil), staticGenerator{response: "unused"}, rag.Options{TopK: 2})
	require.NoError(t, err)

	policy, err := evaluation.NewPolicy(config.QualityConfig{
		Thresholds: map[string]float64{
			"relevance":          0.7,
			"factual_accuracy":   0.8,
			"completeness":       0.7,
			"logical_coherence":  0.7,
			"ethical_compliance": 0.9,
		},
		Weights: map[string]float64{
			"relevance":          0.25,
			"factual_accuracy":   0.3,
			"completeness":       0.2,
			"logical_coherence":  0.15,
			"ethical_compliance": 0.1,
		},
		OverallThreshold: 0.75,
		MaxIterations:    2,
		ImproveEnabled:   true,
	})
	require.NoError(t, err)

	client := &queueLLM{responses: passingVerdicts()}
	evaluator, err := evaluation.NewEvaluator(client, policy, nil)
	require.NoError(t, err)
	improver, err := evaluation.NewImprover(client, nil)
	require.NoError(t, err)
	loop, err := evaluation.NewLoop(evaluator, improver, policy, nil, nil)
	require.NoError(t, err)

	registry := NewRegistry()
	require.NoError(t, RegisterBuiltins(registry, ragService, staticGenerator{response: "The capital of France is Paris."}, loop, improver))

	service, err := NewService(registry, NewRepository(), nil, nil)
	require.NoError(t, err)

	return service, New("assistant", "answers questions", "conv-1", nil)
}

func TestRegisterBuiltins_ProcessQuery(t *testing.T) {
	service, agent := builtinsFixture(t)

	outcome, err := service.ProcessQuery(context.Background(), agent, "Paris is the capital of France.")
	require.NoError(t, err)

	assert.Equal(t, "The capital of France is Paris.", outcome.Response)
	assert.False(t, outcome.Improved)
	require.NotNil(t, outcome.Evaluation)
	assert.False(t, outcome.Evaluation.NeedsImprovement)

	sources, ok := outcome.Sources.([]rag.Source)
	require.True(t, ok)
	require.NotEmpty(t, sources)
	assert.Equal(t, "Paris is the capital of France.", sources[0].Content)

	require.Len(t, agent.State.Actions, 3)
	for _, action := range agent.State.Actions {
		assert.Equal(t, ActionCompleted, action.Status)
	}
}

func TestRegisterBuiltins_CoreActionsRegistered(t *testing.T) {
	service, _ := builtinsFixture(t)

	assert.Equal(t, []string{ActionEvaluate, ActionGenerate, ActionImprove, ActionSearch}, service.AvailableActions())
}

func TestRegisterBuiltins_Validation(t *testing.T) {
	assert.Error(t, RegisterBuiltins(nil, nil, nil, nil, nil))
	assert.Error(t, RegisterBuiltins(NewRegistry(), nil, nil, nil, nil))
}

func TestContextChunks(t *testing.T) {
	assert.Nil(t, contextChunks(nil))
	assert.Equal(t, []string{"one"}, contextChunks("one"))
	assert.Equal(t, []string{"a", "b"}, contextChunks([]string{"a", "b"}))
	assert.Equal(t, []string{"src"}, contextChunks([]rag.Source{{Content: "src"}}))
	assert.Equal(t, []string{"x", "y"}, contextChunks([]interface{}{
		"x",
		map[string]interface{}{"content": "y"},
		map[string]interface{}{"other": 1},
	}))
	assert.Nil(t, contextChunks(42))
}

func TestIntParam(t *testing.T) {
	params := map[string]interface{}{"a": 3, "b": 4.0, "c": "x"}
	assert.Equal(t, 3, intParam(params, "a"))
	assert.Equal(t, 4, intParam(params, "b"))
	assert.Equal(t, 0, intParam(params, "c"))
	assert.Equal(t, 0, intParam(params, "missing"))
}
