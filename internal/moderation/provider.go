package moderation

import (
	"context"
	"fmt"
)

// Provider names accepted by NewClassifier.
const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// ProviderConfig selects and configures a classifier backend.
type ProviderConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

// NewClassifier builds the configured backend. It returns (nil, nil)
// when moderation is switched off or has no key, which the Moderator
// treats as unavailable.
func NewClassifier(ctx context.Context, cfg ProviderConfig) (Classifier, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown moderation provider %q", cfg.Provider)
	}

	if cfg.APIKey == "" {
		return nil, nil
	}

	if cfg.Provider == ProviderGemini {
		c, err := NewGeminiClassifier(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	c, err := NewOpenAIClassifier(cfg.APIKey, cfg.BaseURL, cfg.Model)
	if err != nil {
		return nil, err
	}
	return c, nil
}
