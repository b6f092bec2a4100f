package adk

import (
	"context"
	"fmt"
	"strings"
)

// defaultModels is used when no model is configured for a provider.
var defaultModels = map[string]string{
	"openai":    "gpt-4o-mini",
	"gemini":    "gemini-1.5-flash",
	"anthropic": "claude-sonnet-4-5",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) string {
	if provider == "" {
		provider = "openai"
	}
	return defaultModels[strings.ToLower(provider)]
}

// NewProvider builds the named provider. A missing key or a client that
// cannot be constructed yields ErrServiceUnavailable.
func NewProvider(ctx context.Context, providerName, apiKey, modelName string) (LLMProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("%w: no API key for provider %q", ErrServiceUnavailable, providerName)
	}
	switch strings.ToLower(providerName) {
	case "gemini":
		p, err := NewGeminiProvider(ctx, apiKey, modelName)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
		return p, nil
	case "openai", "":
		return NewOpenAIProvider(apiKey, modelName), nil
	case "anthropic":
		return NewAnthropicProvider(apiKey, modelName), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider: %s", ErrServiceUnavailable, providerName)
	}
}
