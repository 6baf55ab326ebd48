package mapper

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/siherrmann/tripler/core/uri"
	"github.com/siherrmann/tripler/database"
	"github.com/siherrmann/tripler/helper"
	"github.com/siherrmann/tripler/model"
)

// Mapper converts rich domain objects into triples and keeps the
// triple store in sync with them.
type Mapper struct {
	db       *helper.Database
	triples  *database.TriplesDBHandler
	registry *uri.Registry
	uris     *uri.Generator
}

// NewMapper creates a new entity mapper.
func NewMapper(db *helper.Database, triples *database.TriplesDBHandler, registry *uri.Registry, uris *uri.Generator) *Mapper {
	return &Mapper{
		db:       db,
		triples:  triples,
		registry: registry,
		uris:     uris,
	}
}

// Ontology predicate local names, resolved against the base namespace.
const (
	predPerforms       = "performs"
	predHasParticipant = "hasParticipant"
	predGeneratedBy    = "generatedBy"
	predHasRole        = "hasRole"
)

func (m *Mapper) typePredicate() string {
	return m.registry.Resolve("rdf") + "type"
}

func (m *Mapper) labelPredicate() string {
	return m.registry.Resolve("rdfs") + "label"
}

func (m *Mapper) basePredicate(local string) string {
	return m.registry.Resolve("base") + local
}

func (m *Mapper) classURI(name string) string {
	return m.registry.Resolve("base") + name
}

// ActorTriples builds the ordered triple set for an actor: a type
// assertion, a label, the role and one triple per attribute.
func (m *Mapper) ActorTriples(actor *model.Actor) []*model.Triple {
	subject := m.uris.GenerateURI(model.EntityTypeCharacter, actor.Name, &actor.ID, actor.ScenarioID)

	triples := []*model.Triple{
		model.NewURITriple(subject, m.typePredicate(), m.classURI("Character"), model.EntityTypeCharacter),
		model.NewLiteralTriple(subject, m.labelPredicate(), actor.Name, model.EntityTypeCharacter),
	}
	if actor.Role != "" {
		triples = append(triples, model.NewLiteralTriple(subject, m.basePredicate(predHasRole), actor.Role, model.EntityTypeCharacter))
	}
	triples = append(triples, m.attributeTriples(subject, model.EntityTypeCharacter, actor.Attributes)...)

	finishTriples(triples, actor.ID, actor.ScenarioID)
	return triples
}

// EventTriples builds the ordered triple set for an event: type
// assertion, label, participant and generator relationships, parameter
// triples and a temporal-region triple tagged as an instant.
func (m *Mapper) EventTriples(event *model.Event) []*model.Triple {
	subject := m.uris.GenerateURI(model.EntityTypeEvent, event.Description, &event.ID, event.ScenarioID)

	triples := []*model.Triple{
		model.NewURITriple(subject, m.typePredicate(), m.classURI("Event"), model.EntityTypeEvent),
		model.NewLiteralTriple(subject, m.labelPredicate(), event.Description, model.EntityTypeEvent),
	}
	for _, participant := range event.Participants {
		participantURI := m.uris.GenerateURI(model.EntityTypeCharacter, participant.Name, &participant.ID, event.ScenarioID)
		triples = append(triples, model.NewURITriple(subject, m.basePredicate(predHasParticipant), participantURI, model.EntityTypeEvent))
	}
	if event.GeneratedBy != nil {
		actionURI := m.uris.GenerateURI(model.EntityTypeAction, event.GeneratedBy.Name, &event.GeneratedBy.ID, event.ScenarioID)
		triples = append(triples, model.NewURITriple(subject, m.basePredicate(predGeneratedBy), actionURI, model.EntityTypeEvent))
	}
	triples = append(triples, m.attributeTriples(subject, model.EntityTypeEvent, event.Parameters)...)
	if event.EventTime != nil {
		triples = append(triples, m.temporalTriple(subject, model.EntityTypeEvent, *event.EventTime))
	}

	finishTriples(triples, event.ID, event.ScenarioID)
	return triples
}

// ActionTriples builds the ordered triple set for an action: type
// assertion, label, the performing actor, parameter triples and a
// temporal-region triple when the action is time-bearing.
func (m *Mapper) ActionTriples(action *model.Action) []*model.Triple {
	subject := m.uris.GenerateURI(model.EntityTypeAction, action.Name, &action.ID, action.ScenarioID)

	triples := []*model.Triple{
		model.NewURITriple(subject, m.typePredicate(), m.classURI("Action"), model.EntityTypeAction),
		model.NewLiteralTriple(subject, m.labelPredicate(), action.Name, model.EntityTypeAction),
	}
	if action.Actor != nil {
		actorURI := m.uris.GenerateURI(model.EntityTypeCharacter, action.Actor.Name, &action.Actor.ID, action.ScenarioID)
		triples = append(triples, model.NewURITriple(actorURI, m.basePredicate(predPerforms), subject, model.EntityTypeAction))
	}
	triples = append(triples, m.attributeTriples(subject, model.EntityTypeAction, action.Parameters)...)
	if action.ActionTime != nil {
		triples = append(triples, m.temporalTriple(subject, model.EntityTypeAction, *action.ActionTime))
	}

	finishTriples(triples, action.ID, action.ScenarioID)
	return triples
}

// SyncActor synchronizes an actor's triples with its current state.
func (m *Mapper) SyncActor(ctx context.Context, actor *model.Actor) ([]*model.Triple, error) {
	return m.syncEntity(ctx, model.EntityTypeCharacter, actor.ID, m.ActorTriples(actor))
}

// SyncEvent synchronizes an event's triples with its current state.
func (m *Mapper) SyncEvent(ctx context.Context, event *model.Event) ([]*model.Triple, error) {
	return m.syncEntity(ctx, model.EntityTypeEvent, event.ID, m.EventTriples(event))
}

// SyncAction synchronizes an action's triples with its current state.
func (m *Mapper) SyncAction(ctx context.Context, action *model.Action) ([]*model.Triple, error) {
	return m.syncEntity(ctx, model.EntityTypeAction, action.ID, m.ActionTriples(action))
}

// syncEntity reconciles the stored triples for (entityType, entityID)
// with the fresh set inside a single transaction. Unchanged rows are
// kept, new statements inserted and stale rows deleted, so a re-sync
// with an unchanged domain object leaves row identities intact and two
// overlapping syncs cannot leave a partially replaced set.
func (m *Mapper) syncEntity(ctx context.Context, entityType model.EntityType, entityID int64, fresh []*model.Triple) ([]*model.Triple, error) {
	tx, err := m.db.Instance.BeginTx(ctx, nil)
	if err != nil {
		return nil, helper.NewError("begin transaction", err)
	}
	defer tx.Rollback()

	existing, err := m.triples.SelectTriplesTx(tx, &model.TripleFilter{
		EntityType: &entityType,
		EntityID:   &entityID,
	})
	if err != nil {
		return nil, helper.NewError("select existing triples", err)
	}

	// Duplicate statements map to the same key, so keep id lists.
	existingByKey := make(map[string][]*model.Triple)
	for _, t := range existing {
		key := contentKey(t)
		existingByKey[key] = append(existingByKey[key], t)
	}

	for _, t := range fresh {
		key := contentKey(t)
		if kept := existingByKey[key]; len(kept) > 0 {
			t.ID = kept[0].ID
			t.CreatedAt = kept[0].CreatedAt
			existingByKey[key] = kept[1:]
			continue
		}
		if err := m.triples.InsertTripleTx(tx, t); err != nil {
			return nil, helper.NewError("insert triple", err)
		}
	}

	var staleIDs []int64
	for _, stale := range existingByKey {
		for _, t := range stale {
			staleIDs = append(staleIDs, t.ID)
		}
	}
	sort.Slice(staleIDs, func(i, j int) bool { return staleIDs[i] < staleIDs[j] })
	for _, id := range staleIDs {
		if err := m.triples.DeleteTripleTx(tx, id); err != nil {
			return nil, helper.NewError("delete stale triple", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, helper.NewError("commit transaction", err)
	}

	return fresh, nil
}

// attributeTriples builds one triple per key-value pair, literal vs URI
// decided by the value's underlying kind. Keys are emitted in sorted
// order so the triple set is stable across syncs.
func (m *Mapper) attributeTriples(subject string, entityType model.EntityType, attributes map[string]any) []*model.Triple {
	if len(attributes) == 0 {
		return nil
	}

	keys := make([]string, 0, len(attributes))
	for key := range attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	triples := make([]*model.Triple, 0, len(keys))
	for _, key := range keys {
		predicate := m.basePredicate(uri.SanitizeName(key))
		value, isURI := renderValue(attributes[key])
		if isURI {
			triples = append(triples, model.NewURITriple(subject, predicate, value, entityType))
		} else {
			triples = append(triples, model.NewLiteralTriple(subject, predicate, value, entityType))
		}
	}
	return triples
}

// temporalTriple builds a time:hasTime statement carrying a
// zero-dimensional (instant) temporal region.
func (m *Mapper) temporalTriple(subject string, entityType model.EntityType, at time.Time) *model.Triple {
	t := model.NewLiteralTriple(subject, m.registry.Resolve("time")+"hasTime", at.UTC().Format(time.RFC3339), entityType)
	regionType := model.TemporalRegionInstant
	granularity := "seconds"
	t.TemporalRegionType = &regionType
	t.TemporalStart = &at
	t.TemporalGranularity = &granularity
	return t
}

// finishTriples stamps entity ownership and graph scoping on a set.
func finishTriples(triples []*model.Triple, entityID int64, scenarioID *int64) {
	graph := ""
	if scenarioID != nil {
		graph = fmt.Sprintf("scenario:%d", *scenarioID)
	}
	for _, t := range triples {
		id := entityID
		t.EntityID = &id
		t.ScenarioID = scenarioID
		t.Graph = graph
	}
}

// renderValue converts an attribute value to its object representation.
// model.URI values become URI objects, everything else a literal.
func renderValue(value any) (string, bool) {
	switch v := value.(type) {
	case model.URI:
		return string(v), true
	case string:
		return v, false
	case bool:
		return strconv.FormatBool(v), false
	case int:
		return strconv.Itoa(v), false
	case int64:
		return strconv.FormatInt(v, 10), false
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), false
	case time.Time:
		return v.UTC().Format(time.RFC3339), false
	default:
		return fmt.Sprintf("%v", v), false
	}
}

// contentKey derives a stable identity for a triple's content, used to
// diff fresh statements against stored rows. Temporal fields take fixed
// positions so a change in any of them replaces the stored row.
func contentKey(t *model.Triple) string {
	regionType := ""
	if t.TemporalRegionType != nil {
		regionType = string(*t.TemporalRegionType)
	}
	start := ""
	if t.TemporalStart != nil {
		start = t.TemporalStart.UTC().Format(time.RFC3339)
	}
	end := ""
	if t.TemporalEnd != nil {
		end = t.TemporalEnd.UTC().Format(time.RFC3339)
	}
	granularity := ""
	if t.TemporalGranularity != nil {
		granularity = *t.TemporalGranularity
	}

	parts := []string{
		t.Subject,
		t.Predicate,
		t.Object(),
		strconv.FormatBool(t.IsLiteral),
		t.Graph,
		regionType,
		start,
		end,
		granularity,
	}
	return strings.Join(parts, "\x1f")
}
