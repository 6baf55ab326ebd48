package tripler

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/knakk/rdf"
	"github.com/siherrmann/tripler/core/codec"
	"github.com/siherrmann/tripler/core/embedding"
	"github.com/siherrmann/tripler/core/mapper"
	"github.com/siherrmann/tripler/core/pipeline"
	"github.com/siherrmann/tripler/core/retrieval"
	"github.com/siherrmann/tripler/core/uri"
	"github.com/siherrmann/tripler/database"
	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
	loadSql "github.com/siherrmann/tripler/sql"
	"github.com/siherrmann/tripler/worker"
)

// Tripler provides a unified interface to the triple store, the vector
// index and the retrieval engine.
type Tripler struct {
	DB        *helper.Database
	Triples   *database.TriplesDBHandler
	Chunks    *database.ChunksDBHandler
	Documents *database.DocumentsDBHandler
	Jobs      *database.JobsDBHandler
	Registry  *uri.Registry
	URIs      *uri.Generator
	Mapper    *mapper.Mapper
	Pipeline  *pipeline.Pipeline // Optional chunking pipeline
	Engine    *retrieval.Engine
	// Logging
	log *slog.Logger
}

// Options tune construction beyond the database configuration.
type Options struct {
	// BaseNamespace is the base URI minted entities live under.
	// Empty falls back to uri.DefaultBase.
	BaseNamespace string
	// IDFunc mints ids for entities without a database id. Nil uses
	// uri.ShortID.
	IDFunc uri.IDFunc
}

// NewTripler creates a new Tripler instance with all handlers initialized.
func NewTripler(config *helper.DatabaseConfiguration, embeddingDim int) (*Tripler, error) {
	return NewTriplerWithOptions(config, embeddingDim, Options{})
}

// NewTriplerWithOptions creates a new Tripler instance with explicit options.
func NewTriplerWithOptions(config *helper.DatabaseConfiguration, embeddingDim int, options Options) (*Tripler, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("tripler", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then chunks)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create chunks handler", err)
	}

	triples, err := database.NewTriplesDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create triples handler", err)
	}

	jobs, err := database.NewJobsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create jobs handler", err)
	}

	registry := uri.NewRegistry(options.BaseNamespace)
	uris := uri.NewGenerator(registry, options.IDFunc)
	engine := retrieval.NewEngine(triples, chunks)

	return &Tripler{
		DB:        db,
		Triples:   triples,
		Chunks:    chunks,
		Documents: documents,
		Jobs:      jobs,
		Registry:  registry,
		URIs:      uris,
		Mapper:    mapper.NewMapper(db, triples, registry, uris),
		Engine:    engine,
		log:       logger,
	}, nil
}

// Close closes the database connection and releases pipeline resources.
func (t *Tripler) Close() error {
	if t.Pipeline != nil && t.Pipeline.Chain != nil {
		if err := t.Pipeline.Chain.Close(); err != nil {
			t.log.Warn("Failed to close embedding chain", slog.String("error", err.Error()))
		}
	}
	if t.DB != nil && t.DB.Instance != nil {
		return t.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking pipeline for document processing.
func (t *Tripler) SetPipeline(pipeline *pipeline.Pipeline) {
	t.Pipeline = pipeline
}

// UseDefaultPipeline sets up paragraph chunking over the default
// embedding provider chain (local all-MiniLM-L6-v2, 384 dimensions).
func (t *Tripler) UseDefaultPipeline() error {
	return t.UsePipeline(model.DefaultEmbeddingConfig(), 1200, 200)
}

// UsePipeline sets up paragraph chunking over the given provider chain
// configuration.
func (t *Tripler) UsePipeline(config model.EmbeddingConfig, chunkSize int, overlap int) error {
	chain, err := embedding.NewChain(config, t.log)
	if err != nil {
		return helper.NewError("create embedding chain", err)
	}

	t.Pipeline = pipeline.NewPipeline(pipeline.ParagraphChunker(chunkSize, overlap), chain)
	return nil
}

// AddTriple validates and stores a single triple.
func (t *Tripler) AddTriple(triple *model.Triple) error {
	return t.Triples.InsertTriple(triple)
}

// FindTriples returns triples matching the AND-combined filter.
func (t *Tripler) FindTriples(filter *model.TripleFilter) ([]*model.Triple, error) {
	return t.Triples.SelectTriples(filter)
}

// DeleteTriples removes triples matching the filter and returns the count.
func (t *Tripler) DeleteTriples(filter *model.TripleFilter) (int64, error) {
	return t.Triples.DeleteTriples(filter)
}

// SyncActor replaces the stored triples of an actor with its current state.
func (t *Tripler) SyncActor(ctx context.Context, actor *model.Actor) ([]*model.Triple, error) {
	return t.Mapper.SyncActor(ctx, actor)
}

// SyncEvent replaces the stored triples of an event with its current state.
func (t *Tripler) SyncEvent(ctx context.Context, event *model.Event) ([]*model.Triple, error) {
	return t.Mapper.SyncEvent(ctx, event)
}

// SyncAction replaces the stored triples of an action with its current state.
func (t *Tripler) SyncAction(ctx context.Context, action *model.Action) ([]*model.Triple, error) {
	return t.Mapper.SyncAction(ctx, action)
}

// ProcessAndInsertDocument processes a document by:
// 1. Inserting the document metadata (without content)
// 2. Processing the content into chunks using the pipeline
// 3. Replacing the document's chunks with the new set
// The document's Content field is used for processing but not stored in
// the database.
// Returns the number of chunks inserted and any error encountered.
func (t *Tripler) ProcessAndInsertDocument(ctx context.Context, doc *model.Document) (int, error) {
	if t.Pipeline == nil {
		return 0, helper.NewError("process document", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}

	if doc.Content == "" {
		return 0, helper.NewError("process document", fmt.Errorf("document content is empty"))
	}

	// Store content temporarily and clear it before DB insert
	content := doc.Content
	doc.Content = ""

	// Insert document metadata
	if err := t.Documents.InsertDocument(doc); err != nil {
		return 0, helper.NewError("insert document", err)
	}

	t.log.Info("Inserted document", slog.String("document_id", doc.RID.String()), slog.String("title", doc.Title))

	// Process content into chunks
	chunks, err := t.Pipeline.Process(ctx, content)
	if err != nil {
		return 0, helper.NewError("process chunks", err)
	}

	t.log.Info("Processed document into chunks", slog.Int("num_chunks", len(chunks)), slog.String("document_id", doc.RID.String()))

	if err := t.Chunks.ReplaceDocumentChunks(ctx, doc.ID, chunks); err != nil {
		return 0, helper.NewError("store chunks", err)
	}

	return len(chunks), nil
}

// NewWorkerPool starts a bounded worker pool that records job status in
// the jobs table.
func (t *Tripler) NewWorkerPool(workers int, queueSize int) *worker.Pool {
	return worker.NewPool(workers, queueSize, t.Jobs, t.log)
}

// ProcessDocumentAsync queues document processing on a worker pool.
// The returned job id can be used to look the job's status up via the
// Jobs handler.
func (t *Tripler) ProcessDocumentAsync(pool *worker.Pool, doc *model.Document) (uuid.UUID, error) {
	return pool.Submit("process_document", model.Metadata{"title": doc.Title}, func(ctx context.Context) error {
		_, err := t.ProcessAndInsertDocument(ctx, doc)
		return err
	})
}

// Search embeds the query through the pipeline's provider chain and
// performs vector similarity search over chunks.
func (t *Tripler) Search(ctx context.Context, query string, config *model.SearchConfig) ([]*retrieval.RetrievalResult, error) {
	if t.Pipeline == nil || t.Pipeline.Chain == nil {
		return nil, helper.NewError("vector search", fmt.Errorf("pipeline with embedding chain not set, use SetPipeline() first"))
	}
	if config == nil {
		defaults := model.DefaultSearchConfig()
		config = &defaults
	}

	embedding, err := t.Pipeline.Chain.GetEmbedding(ctx, query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return t.Engine.VectorRetrieve(ctx, embedding, config)
}

// SearchTriples embeds the query and performs vector similarity search
// over one embedded triple field (subject, predicate or object).
func (t *Tripler) SearchTriples(ctx context.Context, field string, query string, limit int) ([]*model.Triple, error) {
	if t.Pipeline == nil || t.Pipeline.Chain == nil {
		return nil, helper.NewError("triple search", fmt.Errorf("pipeline with embedding chain not set, use SetPipeline() first"))
	}

	embedding, err := t.Pipeline.Chain.GetEmbedding(ctx, query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return t.Engine.TripleRetrieve(ctx, field, embedding, limit)
}

// MatchPattern evaluates a single triple pattern with "?var" wildcards
// against the store.
func (t *Tripler) MatchPattern(ctx context.Context, pattern retrieval.Pattern, limit int) ([]retrieval.Match, error) {
	return t.Engine.MatchPattern(ctx, pattern, limit)
}

// ExportGraph serializes triples matching the filter to the given RDF
// format, reifying temporal regions.
func (t *Tripler) ExportGraph(w io.Writer, filter *model.TripleFilter, format rdf.Format) error {
	triples, err := t.Triples.SelectTriples(filter)
	if err != nil {
		return helper.NewError("select triples for export", err)
	}
	return codec.Export(w, triples, format)
}

// ImportGraph parses RDF statements, stamps them with the given entity
// scope and stores them. All statements are inserted in one transaction,
// so a failed import leaves no partial state behind.
func (t *Tripler) ImportGraph(ctx context.Context, r io.Reader, format rdf.Format, entityType model.EntityType, entityID *int64, scenarioID *int64) (int, error) {
	triples, err := codec.Import(r, format, entityType, entityID, scenarioID)
	if err != nil {
		return 0, helper.NewError("parse graph", err)
	}

	tx, err := t.DB.Instance.BeginTx(ctx, nil)
	if err != nil {
		return 0, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	for i, triple := range triples {
		if err := t.Triples.InsertTripleTx(tx, triple); err != nil {
			return 0, helper.NewError(fmt.Sprintf("insert imported triple %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, helper.NewError("commit transaction", err)
	}

	return len(triples), nil
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat.
func (t *Tripler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return t.Chunks.ChangeIndexType(ctx, indexType, params)
}
