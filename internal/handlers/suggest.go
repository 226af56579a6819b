package handlers

import (
	"context"
	"time"

	"github.com/sahilm/fuzzy"

	"github.com/parcdesk/parcbot/internal/nlp"
)

const displayNamesKey = "supplier_display_names"

// suggestSupplier proposes the closest known supplier name for a query that
// missed an exact lookup. Matching runs on the normalized forms so accents
// and casing in the stored names do not block a hit. Returns the stored name
// as displayed, or "" when nothing is close enough.
func (r *Registry) suggestSupplier(ctx context.Context, name string) string {
	names, ok := r.cache.GetStrings(displayNamesKey)
	if !ok {
		fs, err := r.store.ListFournisseurs(ctx)
		if err != nil || len(fs) == 0 {
			return ""
		}
		names = make([]string, len(fs))
		for i, f := range fs {
			names[i] = f.Nom
		}
		r.cache.Set(displayNamesKey, names, 10*time.Minute)
	}
	folded := make([]string, len(names))
	for i, n := range names {
		folded[i] = nlp.Normalize(n)
	}
	matches := fuzzy.Find(nlp.Normalize(name), folded)
	if len(matches) == 0 {
		return ""
	}
	return names[matches[0].Index]
}
