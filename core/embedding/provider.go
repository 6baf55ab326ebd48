package embedding

import (
	"context"
	"fmt"

	"github.com/siherrmann/tripler/model"
)

// Provider is a single text-embedding backend.
// Dimension reports the vector length the provider produces; different
// providers produce different dimensions, which is why the chain tracks
// an active dimension (see Chain).
type Provider interface {
	Name() string
	Available() bool
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// NewProvider constructs a provider from its configuration.
func NewProvider(config model.ProviderConfig) (Provider, error) {
	switch config.Kind {
	case model.ProviderLocal:
		return NewLocalProvider(config.Model)
	case model.ProviderOpenAI:
		return NewOpenAIProvider(config.APIKey, config.Model, "", config.Dimension), nil
	case model.ProviderCompatible:
		return NewOpenAIProvider(config.APIKey, config.Model, config.BaseURL, config.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", config.Kind)
	}
}
