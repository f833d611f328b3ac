// Package llm provides chat completion clients for OpenAI-compatible and
// Anthropic APIs. Generation, response evaluation, translation, and planning
// all go through the Client interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

// Client generates a completion for a prompt.
type Client interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	defaultOpenAIBaseURL    = "https://api.openai.com"
	defaultAnthropicBaseURL = "https://api.anthropic.com"

	defaultTimeout     = 60 * time.Second
	defaultMaxRetries  = 3
	defaultBaseBackoff = 1 * time.Second
	defaultMaxTokens   = 4096

	// Low temperature keeps evaluation scores and plans consistent.
	defaultTemperature = 0.3

	defaultRateLimit = 50.0 / 60.0 // ~0.83 requests per second
	defaultBurst     = 5
)

// NewClient creates a completion client from config.
func NewClient(cfg config.LLMConfig) (Client, error) {
	if !cfg.APIKey.IsSet() {
		return nil, fmt.Errorf("%s API key required", cfg.Provider)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	limiter := rate.NewLimiter(rate.Limit(defaultRateLimit), defaultBurst)

	switch cfg.Provider {
	case "openai":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOpenAIBaseURL
		}
		return &openAIClient{
			model:      cfg.Model,
			apiKey:     cfg.APIKey.Value(),
			baseURL:    baseURL,
			httpClient: httpClient,
			limiter:    limiter,
			maxRetries: defaultMaxRetries,
		}, nil
	case "anthropic":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultAnthropicBaseURL
		}
		return &anthropicClient{
			model:      cfg.Model,
			apiKey:     cfg.APIKey.Value(),
			baseURL:    baseURL,
			httpClient: httpClient,
			limiter:    limiter,
			maxRetries: defaultMaxRetries,
		}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %q", cfg.Provider)
	}
}

// retryableError wraps errors that are worth retrying (rate limits, 5xx,
// network failures).
type retryableError struct {
	err error
}

func (r *retryableError) Error() string {
	return r.err.Error()
}

func (r *retryableError) Unwrap() error {
	return r.err
}

// isRetryableError reports whether an error is transient.
func isRetryableError(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}

// completeWithRetries runs doRequest with exponential backoff on transient
// errors, respecting context cancellation between attempts.
func completeWithRetries(ctx context.Context, maxRetries int, doRequest func(context.Context) (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := defaultBaseBackoff * time.Duration(1<<(attempt-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		response, err := doRequest(ctx)
		if err == nil {
			return response, nil
		}

		lastErr = err
		if !isRetryableError(err) {
			return "", err
		}
	}

	return "", fmt.Errorf("max retries exceeded: %w", lastErr)
}
