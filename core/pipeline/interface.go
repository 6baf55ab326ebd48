package pipeline

import (
	"context"
	"fmt"

	"github.com/siherrmann/tripler/core/embedding"
	"github.com/siherrmann/tripler/model"
)

// ChunkDraft represents a chunk before embedding and storage.
type ChunkDraft struct {
	Content  string
	Index    int
	Metadata map[string]interface{}
}

// ChunkFunc is a function that splits text into chunks.
type ChunkFunc func(text string) ([]ChunkDraft, error)

// Pipeline combines a chunking function with the embedding provider chain.
type Pipeline struct {
	Chunker ChunkFunc
	Chain   *embedding.Chain
}

// NewPipeline creates a new processing pipeline.
func NewPipeline(chunker ChunkFunc, chain *embedding.Chain) *Pipeline {
	return &Pipeline{
		Chunker: chunker,
		Chain:   chain,
	}
}

// Process splits text into chunks and embeds each one through the
// provider chain. Because the chain's active dimension can drift when
// provider availability changes mid-run, chunks whose embedding length
// differs from the first chunk's are rejected rather than stored with
// mismatched dimensions.
func (p *Pipeline) Process(ctx context.Context, text string) ([]*model.Chunk, error) {
	drafts, err := p.Chunker(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]*model.Chunk, 0, len(drafts))
	expectedDim := 0

	for _, draft := range drafts {
		vector, err := p.Chain.GetEmbedding(ctx, draft.Content)
		if err != nil {
			return nil, err
		}

		if expectedDim == 0 {
			expectedDim = len(vector)
		} else if len(vector) != expectedDim {
			return nil, fmt.Errorf("embedding dimension drifted from %d to %d at chunk %d", expectedDim, len(vector), draft.Index)
		}

		chunks = append(chunks, &model.Chunk{
			ChunkIndex: draft.Index,
			Content:    draft.Content,
			Embedding:  vector,
			Metadata:   draft.Metadata,
		})
	}

	return chunks, nil
}
