package language

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	calls    atomic.Int32
	response string
	err      error
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func TestTranslate_SameLanguageNoop(t *testing.T) {
	client := &fakeLLM{response: "should not be used"}
	tr := NewTranslator(client)

	got, err := tr.Translate(context.Background(), "hello", "en", "en")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
	assert.Equal(t, int32(0), client.calls.Load())
}

func TestTranslate_CachesResults(t *testing.T) {
	client := &fakeLLM{response: "  bonjour  "}
	tr := NewTranslator(client)

	got, err := tr.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", got)

	got, err = tr.Translate(context.Background(), "hello", "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", got)

	assert.Equal(t, int32(1), client.calls.Load(), "second call must hit cache")

	stats := tr.Stats()
	assert.Equal(t, 1, stats.Hits)
	assert.Equal(t, 1, stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestTranslate_LongTextKeyed(t *testing.T) {
	client := &fakeLLM{response: "translated"}
	tr := NewTranslator(client)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}

	_, err := tr.Translate(context.Background(), string(long), "en", "ru")
	require.NoError(t, err)
	_, err = tr.Translate(context.Background(), string(long), "en", "ru")
	require.NoError(t, err)

	assert.Equal(t, int32(1), client.calls.Load())
}

func TestTranslate_PropagatesErrors(t *testing.T) {
	client := &fakeLLM{err: assert.AnError}
	tr := NewTranslator(client)

	_, err := tr.Translate(context.Background(), "hello", "en", "ru")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "en->ru")
}
