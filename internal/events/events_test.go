package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}

	assert.NoError(t, p.Publish(context.Background(), SubjectDocumentIndexed, DocumentIndexed{DocumentID: "d1"}))
	assert.NoError(t, p.Close())
}

func TestNewNATSPublisher_Disabled(t *testing.T) {
	p, err := NewNATSPublisher(config.NATSConfig{Enabled: false}, nil)
	require.NoError(t, err)

	_, ok := p.(NoopPublisher)
	assert.True(t, ok)
}

func TestEventSerialization(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	event := EvaluationCompleted{
		EvaluationID:     "eval-1",
		OverallScore:     0.82,
		Passed:           true,
		NeedsImprovement: false,
		Timestamp:        now,
	}

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "eval-1", decoded["evaluation_id"])
	assert.InDelta(t, 0.82, decoded["overall_score"], 0.001)
	assert.Equal(t, true, decoded["passed"])
}
