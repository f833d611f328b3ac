package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.LLMConfig
		wantErr string
	}{
		{
			name:    "missing api key",
			cfg:     config.LLMConfig{Provider: "openai", Model: "gpt-4o-mini"},
			wantErr: "API key required",
		},
		{
			name:    "unknown provider",
			cfg:     config.LLMConfig{Provider: "cohere", Model: "x", APIKey: "key"},
			wantErr: "unknown llm provider",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewClient_Providers(t *testing.T) {
	for _, provider := range []string{"openai", "anthropic"} {
		t.Run(provider, func(t *testing.T) {
			client, err := NewClient(config.LLMConfig{
				Provider: provider,
				Model:    "test-model",
				APIKey:   "test-key",
			})
			require.NoError(t, err)
			require.NotNil(t, client)
		})
	}
}

func newTestOpenAIClient(baseURL string, maxRetries int) *openAIClient {
	return &openAIClient{
		model:      "test-model",
		apiKey:     "test-key",
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: maxRetries,
	}
}

func TestOpenAIClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(srv.URL, 0)
	got, err := client.Complete(context.Background(), "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestOpenAIClient_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"recovered"}}]}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(srv.URL, 2)
	got, err := client.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "recovered", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAIClient_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad prompt","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := newTestOpenAIClient(srv.URL, 3)
	_, err := client.Complete(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad prompt")
	assert.Equal(t, int32(1), calls.Load(), "client errors must not be retried")
}

func TestAnthropicClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))
		w.Write([]byte(`{"content":[{"type":"text","text":"bonjour"}]}`))
	}))
	defer srv.Close()

	client := &anthropicClient{
		model:      "test-model",
		apiKey:     "test-key",
		baseURL:    srv.URL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		limiter:    rate.NewLimiter(rate.Inf, 1),
		maxRetries: 0,
	}

	got, err := client.Complete(context.Background(), "dis bonjour")
	require.NoError(t, err)
	assert.Equal(t, "bonjour", got)
}

func TestCompleteWithRetries_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := completeWithRetries(ctx, 3, func(context.Context) (string, error) {
		return "", &retryableError{err: context.DeadlineExceeded}
	})
	require.ErrorIs(t, err, context.Canceled)
}
