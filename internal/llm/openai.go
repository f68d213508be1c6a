package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/mfierro/gastos/internal/config"
	"github.com/mfierro/gastos/internal/model"
)

// openAIClient implements the Client interface for the OpenAI API.
type openAIClient struct {
	client       *openai.Client
	model        string
	homeCurrency string
	temperature  float32
	maxTokens    int
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg config.LLMConfig, homeCurrency string) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openAI API key is required")
	}

	m := cfg.Model
	if m == "" {
		m = openai.GPT4oMini
	}

	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = 0.3
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}

	return &openAIClient{
		client:       openai.NewClient(cfg.APIKey),
		model:        m,
		homeCurrency: homeCurrency,
		temperature:  temperature,
		maxTokens:    maxTokens,
	}, nil
}

// Classify sends a classification request to OpenAI.
func (c *openAIClient) Classify(ctx context.Context, body string) (model.ClassificationResult, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You MUST respond with ONLY a valid JSON object. Do not include any explanatory text, markdown formatting, or commentary before or after the JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(body, c.homeCurrency),
			},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return model.ClassificationResult{}, fmt.Errorf("request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return model.ClassificationResult{}, fmt.Errorf("no completion choices returned")
	}

	return parseResult(resp.Choices[0].Message.Content, c.homeCurrency)
}
