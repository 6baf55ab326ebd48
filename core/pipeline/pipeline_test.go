package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/siherrmann/tripler/core/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sequenceProvider returns vectors with per-call dimensions, to drive
// the dimension drift handling in Process.
type sequenceProvider struct {
	dimensions []int
	call       int
}

func (s *sequenceProvider) Name() string    { return "sequence" }
func (s *sequenceProvider) Available() bool { return true }
func (s *sequenceProvider) Dimension() int  { return s.dimensions[0] }

func (s *sequenceProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	dimension := s.dimensions[s.call%len(s.dimensions)]
	s.call++
	vector := make([]float32, dimension)
	for i := range vector {
		vector[i] = 1
	}
	return vector, nil
}

func TestPipelineProcess(t *testing.T) {
	ctx := context.Background()

	t.Run("Chunks and embeds text", func(t *testing.T) {
		chain := embedding.NewChainFromProviders(4, time.Second, nil, &sequenceProvider{dimensions: []int{4}})
		p := NewPipeline(ParagraphChunker(100, 10), chain)

		chunks, err := p.Process(ctx, "first paragraph\n\nsecond paragraph that is long enough to not pack\n\nthird")
		require.NoError(t, err)
		require.NotEmpty(t, chunks)
		for i, chunk := range chunks {
			assert.Equal(t, i, chunk.ChunkIndex)
			assert.Len(t, chunk.Embedding, 4)
			assert.NotEmpty(t, chunk.Content)
		}
	})

	t.Run("Rejects dimension drift between chunks", func(t *testing.T) {
		chain := embedding.NewChainFromProviders(4, time.Second, nil, &sequenceProvider{dimensions: []int{4, 3}})
		p := NewPipeline(ParagraphChunker(10, 0), chain)

		_, err := p.Process(ctx, "aaaa\n\nbbbb\n\ncccc\n\ndddd\n\neeee\n\nffff")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "dimension drifted")
	})

	t.Run("Chunker errors are surfaced", func(t *testing.T) {
		chain := embedding.NewChainFromProviders(4, time.Second, nil, &sequenceProvider{dimensions: []int{4}})
		p := NewPipeline(ParagraphChunker(0, 0), chain)

		_, err := p.Process(ctx, "text")
		assert.Error(t, err)
	})

	t.Run("Empty text yields no chunks", func(t *testing.T) {
		chain := embedding.NewChainFromProviders(4, time.Second, nil, &sequenceProvider{dimensions: []int{4}})
		p := NewPipeline(ParagraphChunker(100, 10), chain)

		chunks, err := p.Process(ctx, "")
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})
}
