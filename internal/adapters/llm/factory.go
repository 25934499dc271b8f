package llm

import (
	"context"
	"fmt"

	"gemchat/internal/config"
	"gemchat/internal/domain"
)

// New builds the LLMClient selected by the configuration.
func New(ctx context.Context, cfg *config.AppConfig) (domain.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderAnthropic:
		return NewAnthropicClient(cfg.APIKey, cfg.Model)
	case config.ProviderOpenAI:
		return NewOpenAIClient(cfg.APIKey, cfg.Model)
	case config.ProviderGemini:
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}
