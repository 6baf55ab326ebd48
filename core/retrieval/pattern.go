package retrieval

import (
	"strings"

	"github.com/siherrmann/tripler/model"
)

// Pattern is a single triple pattern. Each position holds either a
// bound term, a variable starting with "?", or an empty string which
// matches anything without binding. A single pattern is evaluated in
// isolation, there are no joins across patterns.
type Pattern struct {
	Subject   string
	Predicate string
	Object    string
}

// Bindings maps variable names (without the "?" prefix) to the values
// they matched.
type Bindings map[string]string

// Match pairs a matching triple with the bindings it produced.
type Match struct {
	Triple   *model.Triple
	Bindings Bindings
}

// IsVariable reports whether a pattern term is a variable.
func IsVariable(term string) bool {
	return strings.HasPrefix(term, "?")
}

func varName(term string) string {
	return strings.TrimPrefix(term, "?")
}

// MatchTriples evaluates a pattern against a triple set and returns one
// match per triple that satisfies it. A variable repeated within the
// pattern must bind to the same value in all its positions.
func MatchTriples(pattern Pattern, triples []*model.Triple) []Match {
	var matches []Match
	for _, t := range triples {
		bindings := Bindings{}
		if !bindTerm(pattern.Subject, t.Subject, bindings) {
			continue
		}
		if !bindTerm(pattern.Predicate, t.Predicate, bindings) {
			continue
		}
		if !bindTerm(pattern.Object, t.Object(), bindings) {
			continue
		}
		matches = append(matches, Match{Triple: t, Bindings: bindings})
	}
	return matches
}

// bindTerm matches one pattern position against a value, extending the
// bindings when the term is a named variable.
func bindTerm(term, value string, bindings Bindings) bool {
	if term == "" {
		return true
	}
	if IsVariable(term) {
		name := varName(term)
		if name == "" {
			return true
		}
		if bound, ok := bindings[name]; ok {
			return bound == value
		}
		bindings[name] = value
		return true
	}
	return term == value
}
