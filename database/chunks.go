package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
	loadSql "github.com/siherrmann/tripler/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunk(chunk *model.Chunk) error
	SelectChunk(id int64) (*model.Chunk, error)
	SelectChunksByDocument(documentID int64) ([]*model.Chunk, error)
	DeleteChunksByDocument(documentID int64) (int64, error)
	ReplaceDocumentChunks(ctx context.Context, documentID int64, chunks []*model.Chunk) error
	SelectChunksBySimilarity(embedding []float32, limit int, threshold float64, worldID *int64, documentType string) ([]*model.Chunk, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewChunksDBHandler creates a new chunks database handler.
// It initializes the database connection and loads chunk-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, embeddingDim int, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'document_chunks' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *ChunksDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing document_chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table document_chunks")

	return nil
}

// InsertChunk inserts a new chunk
func (h *ChunksDBHandler) InsertChunk(chunk *model.Chunk) error {
	return h.insertChunk(h.db.Instance, chunk)
}

func (h *ChunksDBHandler) insertChunk(q queryer, chunk *model.Chunk) error {
	if len(chunk.Embedding) > 0 && len(chunk.Embedding) != h.embeddingDim {
		return helper.NewError("embedding dimension check", fmt.Errorf("got %d dimensions, column expects %d", len(chunk.Embedding), h.embeddingDim))
	}

	row := q.QueryRow(
		`SELECT * FROM insert_chunk($1, $2, $3, $4, $5)`,
		chunk.DocumentID,
		chunk.ChunkIndex,
		chunk.Content,
		maybeVector(chunk.Embedding),
		chunk.Metadata,
	)

	return scanChunk(row, chunk)
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(id int64) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
		id,
	)

	chunk := &model.Chunk{}
	if err := scanChunk(row, chunk); err != nil {
		return nil, err
	}

	return chunk, nil
}

// SelectChunksByDocument retrieves all chunks for a document ordered by index
func (h *ChunksDBHandler) SelectChunksByDocument(documentID int64) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_document($1)`,
		documentID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var chunks []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		if err := scanChunk(rows, chunk); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// DeleteChunksByDocument deletes all chunks for a document and returns the count removed
func (h *ChunksDBHandler) DeleteChunksByDocument(documentID int64) (int64, error) {
	var count int64
	err := h.db.Instance.QueryRow(
		`SELECT delete_chunks_by_document($1)`,
		documentID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	return count, nil
}

// ReplaceDocumentChunks deletes all prior chunks for the document and
// inserts the new set with zero-based indices, inside one transaction.
// After it returns, exactly len(chunks) rows exist for the document.
func (h *ChunksDBHandler) ReplaceDocumentChunks(ctx context.Context, documentID int64, chunks []*model.Chunk) error {
	tx, err := h.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`SELECT delete_chunks_by_document($1)`, documentID)
	if err != nil {
		return helper.NewError("delete prior chunks", err)
	}

	for i, chunk := range chunks {
		chunk.DocumentID = documentID
		chunk.ChunkIndex = i
		if err := h.insertChunk(tx, chunk); err != nil {
			return helper.NewError(fmt.Sprintf("insert chunk %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit transaction", err)
	}

	return nil
}

// SelectChunksBySimilarity performs vector similarity search ordered by
// ascending cosine distance. Results carry similarity = 1 - distance.
// worldID and documentType optionally restrict by owning document.
func (h *ChunksDBHandler) SelectChunksBySimilarity(embedding []float32, limit int, threshold float64, worldID *int64, documentType string) ([]*model.Chunk, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding dimension check", fmt.Errorf("got %d dimensions, index expects %d", len(embedding), h.embeddingDim))
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_chunks_by_similarity($1, $2, $3, $4, $5)`,
		pgvector.NewVector(embedding),
		limit,
		threshold,
		worldID,
		documentType,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.Chunk
	for rows.Next() {
		chunk := &model.Chunk{}
		var emb sql.Null[pgvector.Vector]
		var distance, similarity float64

		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.ChunkIndex,
			&chunk.Content,
			&emb,
			&chunk.Metadata,
			&chunk.CreatedAt,
			&distance,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if emb.Valid {
			chunk.Embedding = emb.V.Slice()
		}
		chunk.Distance = &distance
		chunk.Similarity = &similarity

		results = append(results, chunk)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

func scanChunk(s rowScanner, chunk *model.Chunk) error {
	var emb sql.Null[pgvector.Vector]

	err := s.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.ChunkIndex,
		&chunk.Content,
		&emb,
		&chunk.Metadata,
		&chunk.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	if emb.Valid {
		chunk.Embedding = emb.V.Slice()
	}

	return nil
}
