package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

func defaultQualityConfig() config.QualityConfig {
	return config.QualityConfig{
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
	}
}

func scoresAt(values map[Criterion]float64) map[Criterion]CriterionScore {
	scores := make(map[Criterion]CriterionScore, len(values))
	for c, v := range values {
		scores[c] = CriterionScore{Criterion: c, Score: v}
	}
	return scores
}

func TestNewPolicy(t *testing.T) {
	policy, err := NewPolicy(defaultQualityConfig())
	require.NoError(t, err)

	assert.InDelta(t, 0.25, policy.Weights[CriterionRelevance], 1e-9)
	assert.InDelta(t, 0.75, policy.OverallThreshold, 1e-9)
	assert.Equal(t, 2, policy.MaxIterations)
	assert.True(t, policy.ImproveEnabled)
}

func TestNewPolicy_NormalizesWeights(t *testing.T) {
	cfg := defaultQualityConfig()
	cfg.Weights = map[string]float64{
		"relevance":        2,
		"factual_accuracy": 2,
	}

	policy, err := NewPolicy(cfg)
	require.NoError(t, err)

	assert.InDelta(t, 0.5, policy.Weights[CriterionRelevance], 1e-9)
	assert.InDelta(t, 0.5, policy.Weights[CriterionFactualAccuracy], 1e-9)
}

func TestNewPolicy_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.QualityConfig)
	}{
		{"unknown threshold criterion", func(c *config.QualityConfig) { c.Thresholds["style"] = 0.5 }},
		{"unknown weight criterion", func(c *config.QualityConfig) { c.Weights["style"] = 0.5 }},
		{"threshold out of range", func(c *config.QualityConfig) { c.Thresholds["relevance"] = 1.5 }},
		{"negative weight", func(c *config.QualityConfig) { c.Weights["relevance"] = -0.1 }},
		{"no weights", func(c *config.QualityConfig) { c.Weights = nil }},
		{"overall out of range", func(c *config.QualityConfig) { c.OverallThreshold = 2 }},
		{"negative iterations", func(c *config.QualityConfig) { c.MaxIterations = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultQualityConfig()
			tt.mutate(&cfg)
			_, err := NewPolicy(cfg)
			assert.Error(t, err)
		})
	}
}

func TestPolicy_OverallScore(t *testing.T) {
	policy, err := NewPolicy(defaultQualityConfig())
	require.NoError(t, err)

	scores := scoresAt(map[Criterion]float64{
		CriterionRelevance:         0.9,
		CriterionFactualAccuracy:   0.9,
		CriterionCompleteness:      0.5,
		CriterionLogicalCoherence:  0.9,
		CriterionEthicalCompliance: 0.9,
	})

	// 0.25*0.9 + 0.3*0.9 + 0.2*0.5 + 0.15*0.9 + 0.1*0.9 = 0.82
	assert.InDelta(t, 0.82, policy.OverallScore(scores), 1e-9)
}

func TestPolicy_OverallScore_MissingCriterion(t *testing.T) {
	policy, err := NewPolicy(defaultQualityConfig())
	require.NoError(t, err)

	// Only two criteria present: their weights renormalize.
	scores := scoresAt(map[Criterion]float64{
		CriterionRelevance:       1.0,
		CriterionFactualAccuracy: 0.0,
	})

	// (0.25*1.0 + 0.3*0.0) / 0.55
	assert.InDelta(t, 0.25/0.55, policy.OverallScore(scores), 1e-9)

	assert.Zero(t, policy.OverallScore(nil))
}

func TestPolicy_NeedsImprovement(t *testing.T) {
	policy, err := NewPolicy(defaultQualityConfig())
	require.NoError(t, err)

	passing := scoresAt(map[Criterion]float64{
		CriterionRelevance:         0.9,
		CriterionFactualAccuracy:   0.9,
		CriterionCompleteness:      0.9,
		CriterionLogicalCoherence:  0.9,
		CriterionEthicalCompliance: 0.95,
	})
	assert.False(t, policy.NeedsImprovement(policy.OverallScore(passing), passing))

	// Overall fine but one criterion below its threshold.
	oneFailing := scoresAt(map[Criterion]float64{
		CriterionRelevance:         0.9,
		CriterionFactualAccuracy:   0.9,
		CriterionCompleteness:      0.5,
		CriterionLogicalCoherence:  0.9,
		CriterionEthicalCompliance: 0.95,
	})
	overall := policy.OverallScore(oneFailing)
	assert.GreaterOrEqual(t, overall, policy.OverallThreshold)
	assert.True(t, policy.NeedsImprovement(overall, oneFailing))
	assert.Equal(t, []Criterion{CriterionCompleteness}, policy.FailingCriteria(oneFailing))

	// Overall below threshold with every criterion above its own.
	allMediocre := scoresAt(map[Criterion]float64{
		CriterionRelevance:         0.71,
		CriterionFactualAccuracy:   0.81,
		CriterionCompleteness:      0.71,
		CriterionLogicalCoherence:  0.71,
		CriterionEthicalCompliance: 0.91,
	})
	overall = policy.OverallScore(allMediocre)
	assert.Less(t, overall, policy.OverallThreshold)
	assert.True(t, policy.NeedsImprovement(overall, allMediocre))
	assert.Empty(t, policy.FailingCriteria(allMediocre))
}
