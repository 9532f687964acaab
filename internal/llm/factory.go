package llm

import (
	"context"
	"fmt"
	"strings"
)

// NewGenerator creates a Generator for the configured provider.
func NewGenerator(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "gemini", "google":
		return NewGeminiClient(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
