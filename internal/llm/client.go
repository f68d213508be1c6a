// Package llm implements the LLM classification client. Providers share
// a single prompt and response contract; the Classifier wrapper adds the
// degrade-on-failure policy the pipeline relies on.
package llm

import (
	"context"

	"github.com/mfierro/gastos/internal/model"
)

// Client defines the interface for the LLM providers.
type Client interface {
	Classify(ctx context.Context, body string) (model.ClassificationResult, error)
}
