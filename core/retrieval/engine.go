package retrieval

import (
	"context"

	"github.com/siherrmann/tripler/database"
	"github.com/siherrmann/tripler/model"
)

// Engine provides vector retrieval over chunks and triples plus single
// pattern matching against the triple store.
type Engine struct {
	triples *database.TriplesDBHandler
	chunks  *database.ChunksDBHandler
}

// NewEngine creates a new retrieval engine.
func NewEngine(triples *database.TriplesDBHandler, chunks *database.ChunksDBHandler) *Engine {
	return &Engine{
		triples: triples,
		chunks:  chunks,
	}
}

// RetrievalResult contains a retrieved chunk and its score.
type RetrievalResult struct {
	Chunk           *model.Chunk
	Score           float64
	RetrievalMethod string
}

// VectorRetrieve performs pure vector similarity search over chunks.
// Results come back in ascending distance order, so the highest scored
// chunk is first.
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, config *model.SearchConfig) ([]*RetrievalResult, error) {
	chunks, err := e.chunks.SelectChunksBySimilarity(embedding, config.TopK, config.SimilarityThreshold, config.WorldID, config.DocumentType)
	if err != nil {
		return nil, err
	}

	results := make([]*RetrievalResult, len(chunks))
	for i, chunk := range chunks {
		score := 0.0
		if chunk.Similarity != nil {
			score = *chunk.Similarity
		}
		results[i] = &RetrievalResult{
			Chunk:           chunk,
			Score:           score,
			RetrievalMethod: "vector",
		}
	}

	return results, nil
}

// TripleRetrieve performs vector similarity search over one embedded
// triple field (subject, predicate or object).
func (e *Engine) TripleRetrieve(ctx context.Context, field string, embedding []float32, limit int) ([]*model.Triple, error) {
	return e.triples.SelectTriplesBySimilarity(field, embedding, limit)
}

// MatchPattern evaluates a single triple pattern against the store.
// Bound pattern terms are pushed down into the query as filters, then
// repeated-variable consistency is checked on the returned rows.
func (e *Engine) MatchPattern(ctx context.Context, pattern Pattern, limit int) ([]Match, error) {
	filter := &model.TripleFilter{Limit: limit}
	if pattern.Subject != "" && !IsVariable(pattern.Subject) {
		filter.Subject = &pattern.Subject
	}
	if pattern.Predicate != "" && !IsVariable(pattern.Predicate) {
		filter.Predicate = &pattern.Predicate
	}
	if pattern.Object != "" && !IsVariable(pattern.Object) {
		filter.Object = &pattern.Object
	}

	triples, err := e.triples.SelectTriples(filter)
	if err != nil {
		return nil, err
	}

	return MatchTriples(pattern, triples), nil
}
