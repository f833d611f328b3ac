// Package evaluation implements LLM self-assessment: scoring generated
// responses against quality criteria and iteratively improving responses
// that fall below configured thresholds.
package evaluation

import (
	"time"
)

// Criterion is a quality dimension a response is judged on.
type Criterion string

// Quality criteria, in evaluation order.
const (
	CriterionRelevance         Criterion = "relevance"
	CriterionFactualAccuracy   Criterion = "factual_accuracy"
	CriterionCompleteness      Criterion = "completeness"
	CriterionLogicalCoherence  Criterion = "logical_coherence"
	CriterionEthicalCompliance Criterion = "ethical_compliance"
)

// Criteria returns all criteria in stable evaluation order.
func Criteria() []Criterion {
	return []Criterion{
		CriterionRelevance,
		CriterionFactualAccuracy,
		CriterionCompleteness,
		CriterionLogicalCoherence,
		CriterionEthicalCompliance,
	}
}

// Valid reports whether c is a known criterion.
func (c Criterion) Valid() bool {
	switch c {
	case CriterionRelevance, CriterionFactualAccuracy, CriterionCompleteness,
		CriterionLogicalCoherence, CriterionEthicalCompliance:
		return true
	}
	return false
}

// CriterionScore is the judge's verdict on one criterion.
type CriterionScore struct {
	Criterion Criterion `json:"criterion"`
	Score     float64   `json:"score"`
	Reason    string    `json:"reason"`
}

// Result is a complete evaluation of one response.
type Result struct {
	ID               string                       `json:"id"`
	Query            string                       `json:"query"`
	Response         string                       `json:"response"`
	Context          []string                     `json:"context,omitempty"`
	Scores           map[Criterion]CriterionScore `json:"scores"`
	OverallScore     float64                      `json:"overall_score"`
	NeedsImprovement bool                         `json:"needs_improvement"`
	FailingCriteria  []Criterion                  `json:"failing_criteria,omitempty"`
	CreatedAt        time.Time                    `json:"created_at"`
}

// Suggestion is one targeted improvement recommendation.
type Suggestion struct {
	Criterion  string `json:"criterion"`
	Suggestion string `json:"suggestion"`
	Priority   int    `json:"priority"`
}

// Improvement is a revised response produced from evaluation feedback.
type Improvement struct {
	ID               string       `json:"id"`
	EvaluationID     string       `json:"evaluation_id"`
	OriginalResponse string       `json:"original_response"`
	ImprovedResponse string       `json:"improved_response"`
	Suggestions      []Suggestion `json:"suggestions"`
	CreatedAt        time.Time    `json:"created_at"`
}

// ImprovementAttempt records one iteration of the improvement loop.
type ImprovementAttempt struct {
	Iteration   int          `json:"iteration"`
	Response    string       `json:"response"`
	Evaluation  *Result      `json:"evaluation"`
	Improvement *Improvement `json:"improvement,omitempty"`
}

// LoopResult is the outcome of evaluate-and-improve.
type LoopResult struct {
	FinalResponse string               `json:"final_response"`
	Improved      bool                 `json:"improved"`
	Iterations    int                  `json:"iterations"`
	Evaluations   []*Result            `json:"evaluations"`
	Attempts      []ImprovementAttempt `json:"attempts,omitempty"`
}

// FinalEvaluation returns the evaluation of the final response.
func (r *LoopResult) FinalEvaluation() *Result {
	if len(r.Evaluations) == 0 {
		return nil
	}
	return r.Evaluations[len(r.Evaluations)-1]
}
