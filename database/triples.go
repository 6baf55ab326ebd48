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

// TriplesDBHandlerFunctions defines the interface for Triples database operations.
type TriplesDBHandlerFunctions interface {
	InsertTriple(triple *model.Triple) error
	SelectTriple(id int64) (*model.Triple, error)
	SelectTriples(filter *model.TripleFilter) ([]*model.Triple, error)
	DeleteTriples(filter *model.TripleFilter) (int64, error)
	SelectTriplesBySimilarity(field string, embedding []float32, limit int) ([]*model.Triple, error)
}

// TriplesDBHandler handles triple-related database operations.
// It is the system of record for all entity statements.
type TriplesDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// queryer is satisfied by *sql.DB and *sql.Tx so the mapper can run
// the same statements inside its sync transaction.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// NewTriplesDBHandler creates a new triples database handler.
// It initializes the database connection and loads triple-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewTriplesDBHandler(db *helper.Database, embeddingDim int, force bool) (*TriplesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	triplesDbHandler := &TriplesDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := loadSql.LoadTriplesSql(triplesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load triples sql", err)
	}

	err = triplesDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized TriplesDBHandler")

	return triplesDbHandler, nil
}

// CreateTable creates the 'triples' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes and constraints.
func (h *TriplesDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_triples($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing triples table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table triples")

	return nil
}

// InsertTriple validates and persists a new triple.
// Duplicate triples are allowed to accumulate.
func (h *TriplesDBHandler) InsertTriple(triple *model.Triple) error {
	return h.insertTriple(h.db.Instance, triple)
}

// InsertTripleTx inserts a triple inside an existing transaction.
func (h *TriplesDBHandler) InsertTripleTx(tx *sql.Tx, triple *model.Triple) error {
	return h.insertTriple(tx, triple)
}

func (h *TriplesDBHandler) insertTriple(q queryer, triple *model.Triple) error {
	if err := triple.Validate(); err != nil {
		return helper.NewError("validate triple", err)
	}

	row := q.QueryRow(
		`SELECT * FROM insert_triple($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		triple.Subject,
		triple.Predicate,
		triple.ObjectLiteral,
		triple.ObjectURI,
		triple.IsLiteral,
		triple.Graph,
		string(triple.EntityType),
		triple.EntityID,
		triple.ScenarioID,
		maybeVector(triple.SubjectEmbedding),
		maybeVector(triple.PredicateEmbedding),
		maybeVector(triple.ObjectEmbedding),
		triple.TemporalRegionType,
		triple.TemporalStart,
		triple.TemporalEnd,
		triple.TemporalGranularity,
	)

	return scanTripleRow(row, triple)
}

// SelectTriple retrieves a triple by ID.
func (h *TriplesDBHandler) SelectTriple(id int64) (*model.Triple, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_triple($1)`,
		id,
	)

	triple := &model.Triple{}
	if err := scanTripleRow(row, triple); err != nil {
		return nil, err
	}

	return triple, nil
}

// SelectTriples retrieves triples matching the filter.
// All filter fields are optional and AND-combined.
func (h *TriplesDBHandler) SelectTriples(filter *model.TripleFilter) ([]*model.Triple, error) {
	return h.selectTriples(h.db.Instance, filter)
}

// SelectTriplesTx retrieves triples inside an existing transaction.
func (h *TriplesDBHandler) SelectTriplesTx(tx *sql.Tx, filter *model.TripleFilter) ([]*model.Triple, error) {
	return h.selectTriples(tx, filter)
}

func (h *TriplesDBHandler) selectTriples(q queryer, filter *model.TripleFilter) ([]*model.Triple, error) {
	if filter == nil {
		filter = &model.TripleFilter{}
	}

	rows, err := q.Query(
		`SELECT * FROM select_triples($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		filter.Subject,
		filter.Predicate,
		filter.Object,
		filter.IsLiteral,
		filter.Graph,
		entityTypeParam(filter.EntityType),
		filter.EntityID,
		filter.ScenarioID,
		filter.Limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var triples []*model.Triple
	for rows.Next() {
		triple := &model.Triple{}
		if err := scanTripleRows(rows, triple); err != nil {
			return nil, err
		}
		triples = append(triples, triple)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return triples, nil
}

// DeleteTriples bulk-deletes triples matching the filter and returns
// the number of rows removed. Filter semantics match SelectTriples.
func (h *TriplesDBHandler) DeleteTriples(filter *model.TripleFilter) (int64, error) {
	if filter == nil {
		filter = &model.TripleFilter{}
	}

	var count int64
	err := h.db.Instance.QueryRow(
		`SELECT delete_triples($1, $2, $3, $4, $5, $6, $7, $8)`,
		filter.Subject,
		filter.Predicate,
		filter.Object,
		filter.IsLiteral,
		filter.Graph,
		entityTypeParam(filter.EntityType),
		filter.EntityID,
		filter.ScenarioID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

// DeleteTripleTx deletes a single triple by ID inside an existing transaction.
func (h *TriplesDBHandler) DeleteTripleTx(tx *sql.Tx, id int64) error {
	_, err := tx.Exec(
		`SELECT delete_triple($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// SelectTriplesBySimilarity performs vector similarity search over one
// of the per-field triple embeddings ("subject", "predicate" or "object").
func (h *TriplesDBHandler) SelectTriplesBySimilarity(field string, embedding []float32, limit int) ([]*model.Triple, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.NewError("embedding dimension check", fmt.Errorf("got %d dimensions, index expects %d", len(embedding), h.embeddingDim))
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_triples_by_similarity($1, $2, $3)`,
		field,
		pgvector.NewVector(embedding),
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var triples []*model.Triple
	for rows.Next() {
		triple := &model.Triple{}
		var objectLiteral, objectURI sql.NullString
		var entityID, scenarioID sql.NullInt64
		var distance, similarity float64

		err := rows.Scan(
			&triple.ID,
			&triple.Subject,
			&triple.Predicate,
			&objectLiteral,
			&objectURI,
			&triple.IsLiteral,
			&triple.Graph,
			&triple.EntityType,
			&entityID,
			&scenarioID,
			&distance,
			&similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		if objectLiteral.Valid {
			triple.ObjectLiteral = &objectLiteral.String
		}
		if objectURI.Valid {
			triple.ObjectURI = &objectURI.String
		}
		if entityID.Valid {
			triple.EntityID = &entityID.Int64
		}
		if scenarioID.Valid {
			triple.ScenarioID = &scenarioID.Int64
		}
		triple.Distance = &distance
		triple.Similarity = &similarity

		triples = append(triples, triple)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return triples, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTripleRow(row *sql.Row, triple *model.Triple) error {
	return scanTriple(row, triple)
}

func scanTripleRows(rows *sql.Rows, triple *model.Triple) error {
	return scanTriple(rows, triple)
}

func scanTriple(s rowScanner, triple *model.Triple) error {
	var objectLiteral, objectURI sql.NullString
	var entityID, scenarioID sql.NullInt64
	var subjectEmb, predicateEmb, objectEmb sql.Null[pgvector.Vector]
	var temporalRegionType, temporalGranularity sql.NullString
	var temporalStart, temporalEnd sql.NullTime

	err := s.Scan(
		&triple.ID,
		&triple.Subject,
		&triple.Predicate,
		&objectLiteral,
		&objectURI,
		&triple.IsLiteral,
		&triple.Graph,
		&triple.EntityType,
		&entityID,
		&scenarioID,
		&subjectEmb,
		&predicateEmb,
		&objectEmb,
		&temporalRegionType,
		&temporalStart,
		&temporalEnd,
		&temporalGranularity,
		&triple.CreatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	if objectLiteral.Valid {
		triple.ObjectLiteral = &objectLiteral.String
	}
	if objectURI.Valid {
		triple.ObjectURI = &objectURI.String
	}
	if entityID.Valid {
		triple.EntityID = &entityID.Int64
	}
	if scenarioID.Valid {
		triple.ScenarioID = &scenarioID.Int64
	}
	if subjectEmb.Valid {
		triple.SubjectEmbedding = subjectEmb.V.Slice()
	}
	if predicateEmb.Valid {
		triple.PredicateEmbedding = predicateEmb.V.Slice()
	}
	if objectEmb.Valid {
		triple.ObjectEmbedding = objectEmb.V.Slice()
	}
	if temporalRegionType.Valid {
		regionType := model.TemporalRegionType(temporalRegionType.String)
		triple.TemporalRegionType = &regionType
	}
	if temporalStart.Valid {
		triple.TemporalStart = &temporalStart.Time
	}
	if temporalEnd.Valid {
		triple.TemporalEnd = &temporalEnd.Time
	}
	if temporalGranularity.Valid {
		triple.TemporalGranularity = &temporalGranularity.String
	}

	return nil
}

func maybeVector(embedding []float32) any {
	if len(embedding) == 0 {
		return nil
	}
	return pgvector.NewVector(embedding)
}

func entityTypeParam(entityType *model.EntityType) any {
	if entityType == nil {
		return nil
	}
	return string(*entityType)
}
