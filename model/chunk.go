package model

import "time"

// Chunk represents a contiguous slice of a source document stored with
// its embedding for retrieval.
type Chunk struct {
	ID         int64     `json:"id"`
	DocumentID int64     `json:"document_id"`
	ChunkIndex int       `json:"chunk_index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	// Results
	Distance   *float64 `json:"distance,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}
