package embedding

import (
	"context"
	"fmt"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"
	"github.com/siherrmann/tripler/helper"
)

// DefaultLocalModel produces 384-dimensional embeddings.
const DefaultLocalModel = "sentence-transformers/all-MiniLM-L6-v2"

// LocalProvider embeds text with a local sentence transformer model.
type LocalProvider struct {
	name      string
	dimension int
	pipeline  *pipelines.FeatureExtractionPipeline
	session   *hugot.Session
}

// NewLocalProvider downloads the model if needed and initializes a
// hugot session with the Go backend.
func NewLocalProvider(modelName string) (*LocalProvider, error) {
	if modelName == "" {
		modelName = DefaultLocalModel
	}

	modelPath, err := helper.PrepareModel(modelName, "onnx/model.onnx")
	if err != nil {
		return nil, err
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create hugot session: %w", err)
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder-pipeline",
	}
	sentencePipeline, err := hugot.NewPipeline(session, config)
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			return nil, fmt.Errorf("failed to create sentence pipeline: %w (cleanup error: %v)", err, destroyErr)
		}
		return nil, fmt.Errorf("failed to create sentence pipeline: %w", err)
	}

	return &LocalProvider{
		name:      "local:" + modelName,
		dimension: 384,
		pipeline:  sentencePipeline,
		session:   session,
	}, nil
}

func (p *LocalProvider) Name() string {
	return p.name
}

func (p *LocalProvider) Available() bool {
	return p.pipeline != nil
}

func (p *LocalProvider) Dimension() int {
	return p.dimension
}

// Embed generates an embedding for the text.
func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := p.pipeline.RunPipeline([]string{text})
	if err != nil {
		return nil, fmt.Errorf("failed to generate embedding: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding generated")
	}

	embedding := result.Embeddings[0]
	p.dimension = len(embedding)
	return embedding, nil
}

// Close destroys the hugot session.
func (p *LocalProvider) Close() error {
	if p.session != nil {
		return p.session.Destroy()
	}
	return nil
}
