package embedding

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider embeds text through the OpenAI embeddings API or any
// OpenAI-compatible endpoint (e.g. Ollama).
type OpenAIProvider struct {
	client    *openai.Client
	model     string
	dimension int
	available bool
}

// NewOpenAIProvider creates a hosted embedding provider. An empty
// baseURL targets OpenAI proper; a non-empty baseURL targets a
// compatible endpoint, where the API key may be a dummy value.
// The provider is marked available only if a plausible credential or
// endpoint is present.
func NewOpenAIProvider(apiKey, model, baseURL string, dimension int) *OpenAIProvider {
	available := apiKey != ""
	if baseURL != "" {
		// Compatible endpoints (Ollama) ignore the key but the client requires one
		if apiKey == "" {
			apiKey = "unused"
		}
		if !strings.HasSuffix(baseURL, "/v1") {
			baseURL = strings.TrimRight(baseURL, "/") + "/v1"
		}
		available = true
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}

	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	if dimension == 0 {
		dimension = 1536
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		dimension: dimension,
		available: available,
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai:" + p.model
}

func (p *OpenAIProvider) Available() bool {
	return p.available
}

func (p *OpenAIProvider) Dimension() int {
	return p.dimension
}

// Embed requests an embedding for the text.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	req := openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(p.model),
	}
	resp, err := p.client.CreateEmbeddings(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data")
	}

	embedding := resp.Data[0].Embedding
	p.dimension = len(embedding)
	return embedding, nil
}
