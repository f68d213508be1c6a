package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/mfierro/gastos/internal/model"
)

// publishClient is the subset of redis commands the publisher uses.
type publishClient interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Publisher broadcasts confirmation events on a pub/sub channel. Delivery is
// fire-and-forget: failures are logged and never propagated, so a dead
// confirmation channel cannot hold up envelope processing.
type Publisher struct {
	client  publishClient
	logger  *slog.Logger
	channel string
}

// NewPublisher creates a publisher for the given channel.
func NewPublisher(client publishClient, channel string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client:  client,
		logger:  logger,
		channel: channel,
	}
}

// Publish broadcasts one confirmation event.
func (p *Publisher) Publish(ctx context.Context, event model.ConfirmationEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("failed to marshal confirmation event",
			"wid", event.OriginalWID,
			"error", err)
		return
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.logger.Warn("confirmation publish failed",
			"wid", event.OriginalWID,
			"error", err)
	}
}
