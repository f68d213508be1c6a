package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mfierro/gastos/internal/common"
	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/model"
	"github.com/mfierro/gastos/internal/service"
)

// Processor handles one parsed envelope.
type Processor interface {
	Process(ctx context.Context, env model.Envelope) error
}

// streamReader is the subset of redis stream commands the consumer uses.
type streamReader interface {
	XGroupCreateMkStream(ctx context.Context, stream, group, start string) *redis.StatusCmd
	XReadGroup(ctx context.Context, a *redis.XReadGroupArgs) *redis.XStreamSliceCmd
	XAck(ctx context.Context, stream, group string, ids ...string) *redis.IntCmd
}

// Consumer pulls envelopes from a stream consumer group and drives each one
// through the processor. Delivery is at-least-once: an entry is acknowledged
// only after the processor returns without error, so failures are redelivered
// on the next pass over this consumer's pending entries.
type Consumer struct {
	client    streamReader
	processor Processor
	logger    *slog.Logger

	stream   string
	group    string
	consumer string

	batchSize     int64
	blockTimeout  time.Duration
	retryInterval time.Duration
}

// NewConsumer creates a consumer bound to the configured stream and group.
func NewConsumer(client streamReader, processor Processor, rcfg config.RedisConfig, ccfg config.ConsumerConfig, logger *slog.Logger) *Consumer {
	return &Consumer{
		client:        client,
		processor:     processor,
		logger:        logger,
		stream:        rcfg.Stream,
		group:         rcfg.Group,
		consumer:      rcfg.Consumer,
		batchSize:     ccfg.BatchSize,
		blockTimeout:  ccfg.BlockTimeout,
		retryInterval: ccfg.RetryInterval,
	}
}

// Run registers the consumer group and loops until the context is canceled.
// Pull-level errors are never fatal: the loop backs off for the retry
// interval and tries again.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.ensureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("stream consumer started",
		"stream", c.stream,
		"group", c.group,
		"consumer", c.consumer)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Entries delivered to this consumer but never acknowledged come
		// back first, before any new entries are claimed.
		if err := c.readBatch(ctx, "0", time.Millisecond); err != nil {
			c.backoff(ctx, err)
			continue
		}

		if err := c.readBatch(ctx, ">", c.blockTimeout); err != nil {
			c.backoff(ctx, err)
		}
	}
}

// ensureGroup creates the consumer group, tolerating pre-existence. The
// broker may still be starting up alongside this process, so creation is
// retried.
func (c *Consumer) ensureGroup(ctx context.Context) error {
	err := common.WithRetry(ctx, func() error {
		err := c.client.XGroupCreateMkStream(ctx, c.stream, c.group, "0").Err()
		if err != nil && strings.Contains(err.Error(), "BUSYGROUP") {
			c.logger.Info("consumer group already exists", "group", c.group)
			return nil
		}
		return err
	}, service.RetryOptions{
		MaxAttempts:  5,
		InitialDelay: time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to create consumer group %s: %w", c.group, err)
	}
	return nil
}

func (c *Consumer) readBatch(ctx context.Context, id string, block time.Duration) error {
	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.group,
		Consumer: c.consumer,
		Streams:  []string{c.stream, id},
		Count:    c.batchSize,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			// Block timeout expired with nothing to read.
			return nil
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil
		}
		return fmt.Errorf("failed to read from stream %s: %w", c.stream, err)
	}

	for _, s := range streams {
		for _, entry := range s.Messages {
			c.handleEntry(ctx, entry)
		}
	}
	return nil
}

func (c *Consumer) handleEntry(ctx context.Context, entry redis.XMessage) {
	env, err := parseEnvelope(entry.Values)
	if err != nil {
		// A malformed entry can never succeed; acknowledge it so it stops
		// being redelivered.
		c.logger.Error("dropping malformed entry",
			"entry_id", entry.ID,
			"error", err)
		c.ack(ctx, entry.ID)
		return
	}

	if err := c.processor.Process(ctx, env); err != nil {
		// Left unacknowledged for redelivery.
		c.logger.Error("processing failed",
			"entry_id", entry.ID,
			"wid", env.WID,
			"error", err)
		return
	}

	c.ack(ctx, entry.ID)
}

func (c *Consumer) ack(ctx context.Context, entryID string) {
	if err := c.client.XAck(ctx, c.stream, c.group, entryID).Err(); err != nil {
		// The entry will be redelivered and the idempotent store will absorb
		// the duplicate.
		c.logger.Warn("failed to acknowledge entry",
			"entry_id", entryID,
			"error", err)
	}
}

func (c *Consumer) backoff(ctx context.Context, err error) {
	if ctx.Err() != nil {
		return
	}
	c.logger.Error("stream read failed, backing off",
		"error", err,
		"retry_in", c.retryInterval)
	select {
	case <-ctx.Done():
	case <-time.After(c.retryInterval):
	}
}
