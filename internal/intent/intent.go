// Package intent holds the compiled rule tables and the tiered classifier
// that maps a normalized query to a named intent.
package intent

import (
	"regexp"

	"github.com/parcdesk/parcbot/internal/nlp"
)

// Tier identifies which classification stage produced a result. Earlier
// tiers always win over later ones.
type Tier string

const (
	TierPhraseBoost   Tier = "phrase_boost"
	TierEarlyOverride Tier = "early_override"
	TierCategory      Tier = "category"
	TierSemantic      Tier = "semantic"
	TierRuleScore     Tier = "rule_score"
	TierNone          Tier = "none"
)

// Well-known intent names referenced outside the rule table.
const (
	Help       = "help"
	EmptyQuery = "empty_query"
)

// Definition describes one intent: its compiled patterns, weighted keyword
// set and the slot types its handler consumes. Definitions are compiled once
// at startup and never mutated.
type Definition struct {
	Name     string
	Patterns []*regexp.Regexp
	Keywords []string
	Slots    []nlp.SlotType
}

// PhraseBoost is a high-precision pattern that, when matched, decides the
// intent at a fixed weight before any other tier runs.
type PhraseBoost struct {
	Intent  string
	Pattern *regexp.Regexp
	Weight  int
}

// Result is the outcome of one classification. It is created per query and
// consumed exactly once by the dispatcher.
type Result struct {
	Intent     string
	Confidence int
	Slots      nlp.Slots
	Tier       Tier
	Query      string
}

// Table is the compiled, priority-ordered rule set. Declaration order of
// Intents is the within-tier tie-break and must stay deterministic.
type Table struct {
	Intents []Definition
	Boosts  []PhraseBoost

	byName map[string]*Definition
}

// Lookup returns the definition for an intent name, or nil.
func (t *Table) Lookup(name string) *Definition {
	return t.byName[name]
}

// Names returns every intent name in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.Intents))
	for i := range t.Intents {
		names[i] = t.Intents[i].Name
	}
	return names
}

func (t *Table) index() {
	t.byName = make(map[string]*Definition, len(t.Intents))
	for i := range t.Intents {
		t.byName[t.Intents[i].Name] = &t.Intents[i]
	}
}
