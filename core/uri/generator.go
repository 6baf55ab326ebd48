package uri

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/tripler/model"
)

// IDFunc produces a short identifier for entities without a database id.
// It is injected so callers and tests can control identity generation.
type IDFunc func() string

// ShortID returns the first 8 characters of a fresh UUID.
func ShortID() string {
	return uuid.NewString()[:8]
}

// Generator builds entity URIs from entity type, name and optional ids.
type Generator struct {
	registry *Registry
	newID    IDFunc
}

// NewGenerator creates a generator over the registry.
// A nil idFunc defaults to ShortID.
func NewGenerator(registry *Registry, idFunc IDFunc) *Generator {
	if idFunc == nil {
		idFunc = ShortID
	}
	return &Generator{
		registry: registry,
		newID:    idFunc,
	}
}

// GenerateURI builds a URI for an entity. With entityID set the result
// is deterministic: the same (type, name, id, scenario) always yields
// the same URI. Without entityID a fresh short id is appended, so every
// call mints a new URI even for the same logical entity.
func (g *Generator) GenerateURI(entityType model.EntityType, name string, entityID *int64, scenarioID *int64) string {
	base := g.registry.Resolve(bucketFor(entityType))

	var b strings.Builder
	b.WriteString(base)
	if scenarioID != nil {
		fmt.Fprintf(&b, "scenario_%d/", *scenarioID)
	}
	b.WriteString(SanitizeName(name))
	if entityID != nil {
		fmt.Fprintf(&b, "_%d", *entityID)
	} else {
		b.WriteString("_" + g.newID())
	}
	return b.String()
}

// SanitizeName lowercases the name, replaces whitespace with
// underscores and strips everything outside [a-z0-9_-].
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ', r == '\t', r == '\n':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "unnamed"
	}
	return b.String()
}

// bucketFor selects the namespace bucket for an entity type.
// Characters, events, actions and resources get their own bucket,
// everything else lands in the generic entity bucket.
func bucketFor(entityType model.EntityType) string {
	switch entityType {
	case model.EntityTypeCharacter:
		return "character"
	case model.EntityTypeEvent:
		return "event"
	case model.EntityTypeAction:
		return "action"
	case model.EntityTypeResource:
		return "resource"
	default:
		return "entity"
	}
}
