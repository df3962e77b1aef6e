package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"go-cache-interceptor/internal/interfaces"
	"go-cache-interceptor/internal/models"
)

const publishTimeout = time.Second

// RedisSink forwards metadata as JSON to a Redis pub/sub channel
type RedisSink struct {
	client  interfaces.KeyDbClient
	channel string
	logger  *zap.Logger
}

// NewRedisSink creates a sink publishing on channel
func NewRedisSink(client interfaces.KeyDbClient, channel string, logger *zap.Logger) *RedisSink {
	return &RedisSink{
		client:  client,
		channel: channel,
		logger:  logger,
	}
}

// Send publishes one value
func (s *RedisSink) Send(ctx context.Context, metadata models.CacheMetadata) error {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish metadata on %s: %w", s.channel, err)
	}
	return nil
}

// Consume forwards every value of sub until ctx is done or sub is closed.
// Failures are logged and do not stop forwarding.
func (s *RedisSink) Consume(ctx context.Context, sub *Subscription) {
	consume(ctx, sub, func(m models.CacheMetadata) {
		if err := s.Send(ctx, m); err != nil {
			s.logger.Warn("Metadata sink publish failed", zap.Error(err))
		}
	})
}
