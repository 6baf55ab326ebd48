package model

// ProviderKind identifies an embedding backend implementation.
type ProviderKind string

const (
	ProviderLocal  ProviderKind = "local"
	ProviderOpenAI ProviderKind = "openai"
	// ProviderCompatible is any OpenAI-compatible endpoint (e.g. Ollama).
	ProviderCompatible ProviderKind = "compatible"
)

// ProviderConfig configures a single embedding backend.
type ProviderConfig struct {
	Kind      ProviderKind `json:"kind"`
	Model     string       `json:"model,omitempty"`
	APIKey    string       `json:"api_key,omitempty"`
	BaseURL   string       `json:"base_url,omitempty"`
	Dimension int          `json:"dimension,omitempty"`
}

// EmbeddingConfig enumerates the provider chain in priority order.
// The chain tries providers front to back and falls through on failure.
type EmbeddingConfig struct {
	Providers []ProviderConfig `json:"providers"`
	// DefaultDimension is the active dimension before any provider has answered.
	DefaultDimension int `json:"default_dimension"`
	// TimeoutSeconds bounds each provider call before falling to the next.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// DefaultEmbeddingConfig returns a local-first chain at 384 dimensions.
func DefaultEmbeddingConfig() EmbeddingConfig {
	return EmbeddingConfig{
		Providers: []ProviderConfig{
			{Kind: ProviderLocal, Model: "sentence-transformers/all-MiniLM-L6-v2", Dimension: 384},
		},
		DefaultDimension: 384,
		TimeoutSeconds:   30,
	}
}

// SearchConfig represents configuration for a similarity query.
type SearchConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Document filtering
	WorldID      *int64 `json:"world_id,omitempty"`
	DocumentType string `json:"document_type,omitempty"`
}

// DefaultSearchConfig returns a sensible default configuration.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TopK:                5,
		SimilarityThreshold: 0.0,
	}
}
