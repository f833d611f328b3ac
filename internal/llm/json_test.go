package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_FencedBlock(t *testing.T) {
	response := "Here is my evaluation:\n```json\n{\"score\": 0.8, \"reason\": \"good\"}\n```\nDone."

	doc, err := ExtractJSON(response)
	require.NoError(t, err)

	var parsed struct {
		Score  float64 `json:"score"`
		Reason string  `json:"reason"`
	}
	require.NoError(t, json.Unmarshal([]byte(doc), &parsed))
	assert.Equal(t, 0.8, parsed.Score)
	assert.Equal(t, "good", parsed.Reason)
}

func TestExtractJSON_BareObject(t *testing.T) {
	doc, err := ExtractJSON(`The result is {"score": 0.5} as requested`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"score": 0.5}`, doc)
}

func TestExtractJSON_NestedAndStrings(t *testing.T) {
	raw := `{"suggestions": [{"text": "add } detail", "priority": 1}]}`
	doc, err := ExtractJSON(raw)
	require.NoError(t, err)
	assert.JSONEq(t, raw, doc)
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I cannot answer that.")
	require.Error(t, err)
}

func TestExtractJSON_Unterminated(t *testing.T) {
	_, err := ExtractJSON(`{"score": 0.5`)
	require.Error(t, err)
}

func TestExtractJSONWithRemainder(t *testing.T) {
	response := "```json\n{\"suggestions\": []}\n```\nImproved answer text here."

	doc, remainder, err := ExtractJSONWithRemainder(response)
	require.NoError(t, err)
	assert.JSONEq(t, `{"suggestions": []}`, doc)
	assert.Equal(t, "Improved answer text here.", remainder)
}

func TestExtractJSONWithRemainder_BareArray(t *testing.T) {
	doc, remainder, err := ExtractJSONWithRemainder(`[1, 2, 3] trailing`)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 2, 3]`, doc)
	assert.Equal(t, "trailing", remainder)
}
