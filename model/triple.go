package model

import (
	"errors"
	"fmt"
	"time"
)

// EntityType classifies the domain object a triple belongs to.
type EntityType string

const (
	EntityTypeCharacter        EntityType = "character"
	EntityTypeEvent            EntityType = "event"
	EntityTypeAction           EntityType = "action"
	EntityTypeResource         EntityType = "resource"
	EntityTypeEntity           EntityType = "entity"
	EntityTypeDocument         EntityType = "document"
	EntityTypeGuidelineConcept EntityType = "guideline_concept"
	EntityTypeCase             EntityType = "case"
)

// ErrInvalidEntityType is returned when a triple carries an entity type
// outside the closed set.
var ErrInvalidEntityType = errors.New("invalid entity type")

// ErrMalformedTriple is returned when a triple has both or neither of
// the literal and URI object fields set.
var ErrMalformedTriple = errors.New("malformed triple")

var validEntityTypes = map[EntityType]bool{
	EntityTypeCharacter:        true,
	EntityTypeEvent:            true,
	EntityTypeAction:           true,
	EntityTypeResource:         true,
	EntityTypeEntity:           true,
	EntityTypeDocument:         true,
	EntityTypeGuidelineConcept: true,
	EntityTypeCase:             true,
}

// Valid reports whether the entity type is part of the closed set.
func (e EntityType) Valid() bool {
	return validEntityTypes[e]
}

// TemporalRegionType encodes the dimensionality of a temporal region.
type TemporalRegionType string

const (
	// TemporalRegionInstant is a zero-dimensional region (a point in time).
	TemporalRegionInstant TemporalRegionType = "0d"
	// TemporalRegionInterval is a one-dimensional region (a time span).
	TemporalRegionInterval TemporalRegionType = "1d"
)

// Triple represents a single (subject, predicate, object) statement.
// The object is either a literal value or a URI, never both.
type Triple struct {
	ID            int64      `json:"id"`
	Subject       string     `json:"subject"`
	Predicate     string     `json:"predicate"`
	ObjectLiteral *string    `json:"object_literal,omitempty"`
	ObjectURI     *string    `json:"object_uri,omitempty"`
	IsLiteral     bool       `json:"is_literal"`
	Graph         string     `json:"graph,omitempty"`
	EntityType    EntityType `json:"entity_type"`
	EntityID      *int64     `json:"entity_id,omitempty"`
	ScenarioID    *int64     `json:"scenario_id,omitempty"`
	// Optional per-field embeddings for similarity search over triples
	SubjectEmbedding   []float32 `json:"subject_embedding,omitempty"`
	PredicateEmbedding []float32 `json:"predicate_embedding,omitempty"`
	ObjectEmbedding    []float32 `json:"object_embedding,omitempty"`
	// Optional temporal region
	TemporalRegionType  *TemporalRegionType `json:"temporal_region_type,omitempty"`
	TemporalStart       *time.Time          `json:"temporal_start,omitempty"`
	TemporalEnd         *time.Time          `json:"temporal_end,omitempty"`
	TemporalGranularity *string             `json:"temporal_granularity,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
	// Results
	Distance   *float64 `json:"distance,omitempty"`
	Similarity *float64 `json:"similarity,omitempty"`
}

// NewLiteralTriple creates a triple with a literal object.
func NewLiteralTriple(subject, predicate, literal string, entityType EntityType) *Triple {
	return &Triple{
		Subject:       subject,
		Predicate:     predicate,
		ObjectLiteral: &literal,
		IsLiteral:     true,
		EntityType:    entityType,
	}
}

// NewURITriple creates a triple with a URI object.
func NewURITriple(subject, predicate, objectURI string, entityType EntityType) *Triple {
	return &Triple{
		Subject:    subject,
		Predicate:  predicate,
		ObjectURI:  &objectURI,
		IsLiteral:  false,
		EntityType: entityType,
	}
}

// Object returns the object value regardless of kind.
func (t *Triple) Object() string {
	if t.IsLiteral {
		if t.ObjectLiteral != nil {
			return *t.ObjectLiteral
		}
		return ""
	}
	if t.ObjectURI != nil {
		return *t.ObjectURI
	}
	return ""
}

// Validate checks the literal/URI invariant and the entity type.
func (t *Triple) Validate() error {
	if t.Subject == "" || t.Predicate == "" {
		return fmt.Errorf("%w: subject and predicate must be set", ErrMalformedTriple)
	}
	if t.IsLiteral && (t.ObjectLiteral == nil || t.ObjectURI != nil) {
		return fmt.Errorf("%w: is_literal requires object_literal and no object_uri", ErrMalformedTriple)
	}
	if !t.IsLiteral && (t.ObjectURI == nil || t.ObjectLiteral != nil) {
		return fmt.Errorf("%w: non-literal requires object_uri and no object_literal", ErrMalformedTriple)
	}
	if !t.EntityType.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidEntityType, t.EntityType)
	}
	return nil
}

// TripleFilter describes an AND-combined filter over triples.
// Nil fields are ignored. Object honors IsLiteral when set, otherwise
// it matches either the literal or the URI object column.
type TripleFilter struct {
	Subject    *string
	Predicate  *string
	Object     *string
	IsLiteral  *bool
	Graph      *string
	EntityType *EntityType
	EntityID   *int64
	ScenarioID *int64
	Limit      int
}
