package llm

import (
	"fmt"
	"strings"

	"github.com/mfierro/gastos/internal/config"
)

// NewClient creates the LLM client for the configured provider.
func NewClient(cfg config.LLMConfig, homeCurrency string) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini":
		return newGeminiClient(cfg, homeCurrency)
	case "openai":
		return newOpenAIClient(cfg, homeCurrency)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", cfg.Provider)
	}
}
