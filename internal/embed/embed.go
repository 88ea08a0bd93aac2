// Package embed turns text files into embedding records.
package embed

import (
	"context"
	"fmt"

	"github.com/deusflow/datatools/internal/config"
)

// Embedder returns one vector per input text, in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// NewEmbedder builds the provider selected in cfg.
func NewEmbedder(ctx context.Context, cfg config.EmbedConfig) (Embedder, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY: %w", config.ErrMissingAPIKey)
		}
		return NewOpenAI(cfg.OpenAIKey, cfg.Model), nil
	case config.ProviderGemini:
		if cfg.GeminiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY: %w", config.ErrMissingAPIKey)
		}
		return NewGemini(ctx, cfg.GeminiKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}
