package evaluation

import (
	"fmt"
	"math"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

// Policy decides when a response is good enough and how far the
// improvement loop may go.
type Policy struct {
	// Thresholds are per-criterion minimum scores.
	Thresholds map[Criterion]float64
	// Weights blend criterion scores into the overall score. They are
	// normalized to sum to 1.0.
	Weights map[Criterion]float64
	// OverallThreshold is the minimum acceptable weighted score.
	OverallThreshold float64
	// MaxIterations caps improvement rounds per response.
	MaxIterations int
	// ImproveEnabled gates the improvement loop entirely.
	ImproveEnabled bool
}

// NewPolicy builds a Policy from configuration. Criterion names are
// validated and weights normalized.
func NewPolicy(cfg config.QualityConfig) (*Policy, error) {
	thresholds := make(map[Criterion]float64, len(cfg.Thresholds))
	for name, threshold := range cfg.Thresholds {
		c := Criterion(name)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown criterion in thresholds: %q", name)
		}
		if threshold < 0 || threshold > 1 {
			return nil, fmt.Errorf("threshold for %s out of range [0,1]: %v", name, threshold)
		}
		thresholds[c] = threshold
	}

	weights := make(map[Criterion]float64, len(cfg.Weights))
	var sum float64
	for name, weight := range cfg.Weights {
		c := Criterion(name)
		if !c.Valid() {
			return nil, fmt.Errorf("unknown criterion in weights: %q", name)
		}
		if weight < 0 {
			return nil, fmt.Errorf("weight for %s cannot be negative: %v", name, weight)
		}
		weights[c] = weight
		sum += weight
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("at least one criterion weight required")
	}
	if sum <= 0 {
		return nil, fmt.Errorf("criterion weights must sum to a positive value")
	}

	// Normalize so the overall score stays in [0,1] even when the
	// configured weights do not sum to exactly 1.
	if math.Abs(sum-1.0) > 1e-9 {
		for c, w := range weights {
			weights[c] = w / sum
		}
	}

	if cfg.OverallThreshold < 0 || cfg.OverallThreshold > 1 {
		return nil, fmt.Errorf("overall threshold out of range [0,1]: %v", cfg.OverallThreshold)
	}
	if cfg.MaxIterations < 0 {
		return nil, fmt.Errorf("max iterations cannot be negative: %d", cfg.MaxIterations)
	}

	return &Policy{
		Thresholds:       thresholds,
		Weights:          weights,
		OverallThreshold: cfg.OverallThreshold,
		MaxIterations:    cfg.MaxIterations,
		ImproveEnabled:   cfg.ImproveEnabled,
	}, nil
}

// OverallScore computes the weighted score across the present criteria.
// Missing criteria contribute nothing; their weight is excluded so one
// absent score does not drag the response down.
func (p *Policy) OverallScore(scores map[Criterion]CriterionScore) float64 {
	var weighted, total float64
	for c, w := range p.Weights {
		score, ok := scores[c]
		if !ok {
			continue
		}
		weighted += w * score.Score
		total += w
	}
	if total == 0 {
		return 0
	}
	return weighted / total
}

// FailingCriteria returns criteria scoring below their threshold, in
// stable evaluation order.
func (p *Policy) FailingCriteria(scores map[Criterion]CriterionScore) []Criterion {
	var failing []Criterion
	for _, c := range Criteria() {
		threshold, ok := p.Thresholds[c]
		if !ok {
			continue
		}
		if score, ok := scores[c]; ok && score.Score < threshold {
			failing = append(failing, c)
		}
	}
	return failing
}

// NeedsImprovement reports whether the response violates the overall
// threshold or any per-criterion threshold.
func (p *Policy) NeedsImprovement(overall float64, scores map[Criterion]CriterionScore) bool {
	if overall < p.OverallThreshold {
		return true
	}
	return len(p.FailingCriteria(scores)) > 0
}
