package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

func TestNew_ValidLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			logger, err := New(config.LoggingConfig{Level: level, Format: "json"})
			require.NoError(t, err)
			require.NotNil(t, logger)
		})
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "verbose", Format: "json"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestLogger_ContextRequestID(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithRequestID(context.Background(), "req-123")

	tl.Info(ctx, "handling request")

	entries := tl.FilterMessage("handling request").All()
	require.Len(t, entries, 1)

	found := false
	for _, f := range entries[0].Context {
		if f.Key == "request.id" && f.String == "req-123" {
			found = true
		}
	}
	assert.True(t, found, "request.id field missing")
}

func TestLogger_With(t *testing.T) {
	tl := NewTestLogger()
	child := tl.With(zap.String("component", "rag"))

	child.Info(context.Background(), "ready")

	entries := tl.FilterMessage("ready").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "rag", entries[0].ContextMap()["component"])
}

func TestFromContext_Default(t *testing.T) {
	logger := FromContext(context.Background())
	require.NotNil(t, logger)
	// Nop logger must not panic.
	logger.Info(context.Background(), "ignored")
}

func TestFromContext_RoundTrip(t *testing.T) {
	tl := NewTestLogger()
	ctx := WithLogger(context.Background(), tl.Logger)

	FromContext(ctx).Warn(ctx, "stored logger used")

	tl.AssertLogged(t, zapcore.WarnLevel, "stored logger used")
}
