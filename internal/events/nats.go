package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/temafey/rag-vector-doc-claude/internal/config"
)

// NATSPublisher publishes events over a NATS connection.
type NATSPublisher struct {
	nc     *nats.Conn
	logger *zap.Logger
}

// NewNATSPublisher connects to NATS and returns a working publisher.
// When eventing is disabled in config, a NoopPublisher is returned
// instead so callers never need to branch.
func NewNATSPublisher(cfg config.NATSConfig, logger *zap.Logger) (Publisher, error) {
	if !cfg.Enabled {
		return NoopPublisher{}, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	url := cfg.URL
	if url == "" {
		url = nats.DefaultURL
	}

	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(1*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS at %s: %w", url, err)
	}

	logger.Info("connected to NATS", zap.String("url", url))

	return &NATSPublisher{nc: nc, logger: logger}, nil
}

// Publish serializes the event as JSON and publishes it. Publish failures
// are logged and returned but callers typically treat them as non-fatal:
// eventing is a side channel, not part of the request path.
func (p *NATSPublisher) Publish(ctx context.Context, subject string, event interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event for %s: %w", subject, err)
	}

	if err := p.nc.Publish(subject, data); err != nil {
		p.logger.Warn("event publish failed",
			zap.String("subject", subject),
			zap.Error(err),
		)
		return fmt.Errorf("publishing to %s: %w", subject, err)
	}

	return nil
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Flush(); err != nil {
		p.logger.Warn("flush on close failed", zap.Error(err))
	}
	p.nc.Close()
	return nil
}

var _ Publisher = (*NATSPublisher)(nil)
