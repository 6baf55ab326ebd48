package embedding

import (
	"context"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
)

// Chain tries an ordered list of embedding providers and falls through
// on failure. The first provider that answers wins and its output
// length becomes the active dimension, so two calls made under
// different provider availability can yield vectors of different
// length. Callers comparing vectors must guard against that.
type Chain struct {
	providers []Provider
	timeout   time.Duration
	log       *slog.Logger

	mu        sync.Mutex
	activeDim int
}

// NewChain builds a chain from the typed configuration.
// Providers that fail to construct are skipped with a warning rather
// than failing the whole chain.
func NewChain(config model.EmbeddingConfig, logger *slog.Logger) (*Chain, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	for _, pc := range config.Providers {
		provider, err := NewProvider(pc)
		if err != nil {
			logger.Warn("Skipping embedding provider", slog.String("kind", string(pc.Kind)), slog.String("error", err.Error()))
			continue
		}
		providers = append(providers, provider)
	}

	dim := config.DefaultDimension
	if dim == 0 {
		dim = 384
	}

	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Chain{
		providers: providers,
		timeout:   timeout,
		log:       logger,
		activeDim: dim,
	}, nil
}

// NewChainFromProviders builds a chain over already-constructed providers.
func NewChainFromProviders(defaultDimension int, timeout time.Duration, logger *slog.Logger, providers ...Provider) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	if defaultDimension == 0 {
		defaultDimension = 384
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Chain{
		providers: providers,
		timeout:   timeout,
		log:       logger,
		activeDim: defaultDimension,
	}
}

// ActiveDimension reports the dimension of the last successful provider
// answer, or the configured default before any provider has answered.
func (c *Chain) ActiveDimension() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeDim
}

// Providers returns the providers in chain order.
func (c *Chain) Providers() []Provider {
	return c.providers
}

// GetEmbedding embeds text through the first available provider.
// Empty input returns a zero vector at the active dimension. If every
// provider fails, a normalized random vector at the last-known
// dimension is returned and no error is surfaced; retrieval quality
// silently degrades.
func (c *Chain) GetEmbedding(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return make([]float32, c.ActiveDimension()), nil
	}

	for _, provider := range c.providers {
		if !provider.Available() {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		embedding, err := provider.Embed(callCtx, text)
		cancel()
		if err != nil {
			c.log.Warn("Embedding provider failed, falling through",
				slog.String("provider", provider.Name()),
				slog.String("error", err.Error()))
			continue
		}
		if len(embedding) == 0 {
			c.log.Warn("Embedding provider returned empty vector, falling through",
				slog.String("provider", provider.Name()))
			continue
		}

		c.mu.Lock()
		c.activeDim = len(embedding)
		c.mu.Unlock()

		return embedding, nil
	}

	dim := c.ActiveDimension()
	c.log.Warn("All embedding providers failed, returning random vector", slog.Int("dimension", dim))
	return randomNormalizedVector(dim), nil
}

// Close releases provider resources (currently only the local model session).
func (c *Chain) Close() error {
	var firstErr error
	for _, provider := range c.providers {
		if closer, ok := provider.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil && firstErr == nil {
				firstErr = helper.NewError("close provider "+provider.Name(), err)
			}
		}
	}
	return firstErr
}

// randomNormalizedVector returns a unit-length random vector.
func randomNormalizedVector(dimension int) []float32 {
	vector := make([]float32, dimension)
	var norm float64
	for i := range vector {
		vector[i] = float32(rand.NormFloat64())
		norm += float64(vector[i]) * float64(vector[i])
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vector
	}
	for i := range vector {
		vector[i] = float32(float64(vector[i]) / norm)
	}
	return vector
}
