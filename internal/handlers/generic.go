package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/parcdesk/parcbot/internal/nlp"
)

// French stop words excluded from cross-entity search terms.
var stopWords = map[string]bool{
	"le": true, "la": true, "les": true, "un": true, "une": true, "des": true,
	"de": true, "du": true, "d'": true, "et": true, "ou": true, "a": true,
	"au": true, "aux": true, "en": true, "sur": true, "pour": true, "dans": true,
	"est": true, "sont": true, "qui": true, "que": true, "quel": true,
	"quels": true, "quelle": true, "quelles": true, "combien": true,
	"liste": true, "affiche": true, "montre": true, "moi": true, "mes": true,
	"nos": true, "notre": true, "il": true, "elle": true, "y": true, "avec": true,
}

// Generic is the first fallback tier: a cross-entity lookup driven by the
// extracted slots and the query's content words.
func (r *Registry) Generic(ctx context.Context, slots nlp.Slots, query string) (*Result, error) {
	terms := searchTerms(slots, query)
	if len(terms) == 0 {
		return nil, nil
	}
	hits, err := r.store.Search(ctx, terms, 8)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "J'ai trouve %d element(s) en rapport avec votre question :\n", len(hits))
	for _, h := range hits {
		fmt.Fprintf(&b, "- [%s] %s\n", h.Entity, h.Summary)
	}
	b.WriteString("Reformulez pour une recherche plus precise.")
	return &Result{Text: b.String()}, nil
}

// Retrieve returns raw context lines for the LLM tier.
func (r *Registry) Retrieve(ctx context.Context, slots nlp.Slots, query string, k int) ([]string, error) {
	terms := searchTerms(slots, query)
	if len(terms) == 0 {
		return nil, nil
	}
	hits, err := r.store.Search(ctx, terms, k)
	if err != nil {
		return nil, err
	}
	lines := make([]string, len(hits))
	for i, h := range hits {
		lines[i] = h.Summary
	}
	return lines, nil
}

func searchTerms(slots nlp.Slots, query string) []string {
	var terms []string
	seen := map[string]bool{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if len(t) >= 3 && !stopWords[t] && !seen[t] {
			seen[t] = true
			terms = append(terms, t)
		}
	}

	for _, st := range []nlp.SlotType{nlp.SlotCode, nlp.SlotSerial, nlp.SlotSupplier, nlp.SlotUser, nlp.SlotQuoted} {
		if slots.Has(st) {
			add(slots.Value(st))
		}
	}
	for _, tok := range strings.Fields(query) {
		add(tok)
	}
	if len(terms) > 6 {
		terms = terms[:6]
	}
	return terms
}
