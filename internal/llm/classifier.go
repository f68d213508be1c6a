package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/mfierro/gastos/internal/model"
)

// FallbackReply is the user-facing reply when classification fails.
const FallbackReply = "Lo siento, no entendí eso. ¿Puedes intentarlo de nuevo?"

// Classifier wraps a Client with a per-call timeout and the degrade-on-failure
// policy: any provider error yields the fixed fallback result instead of an
// error, so an unclassifiable message never blocks the pipeline. There are no
// retries here; a failed classification is terminal for that envelope.
type Classifier struct {
	client  Client
	logger  *slog.Logger
	timeout time.Duration
}

// NewClassifier creates a classifier around the given provider client.
func NewClassifier(client Client, timeout time.Duration, logger *slog.Logger) *Classifier {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Classifier{
		client:  client,
		logger:  logger,
		timeout: timeout,
	}
}

// Classify returns the model's result for the message body, or the fallback
// result if the provider is unreachable, times out, or returns garbage.
func (c *Classifier) Classify(ctx context.Context, body string) model.ClassificationResult {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.Classify(ctx, body)
	if err != nil {
		c.logger.Warn("classification failed, using fallback result", "error", err)
		return model.ClassificationResult{ReplyMessage: FallbackReply}
	}
	if result.ReplyMessage == "" {
		result.ReplyMessage = FallbackReply
	}
	return result
}
