// Package handlers binds each intent to its read operation against the
// inventory store. Registration happens exactly once, at construction.
package handlers

import (
	"context"

	"github.com/parcdesk/parcbot/internal/cache"
	"github.com/parcdesk/parcbot/internal/nlp"
	"github.com/parcdesk/parcbot/internal/store"
)

// Result is a handler's structured output. Text is user-facing French;
// NotFound marks a clean miss ("not found, did you mean") as opposed to an
// execution failure.
type Result struct {
	Text     string
	NotFound bool
}

// Handler answers one intent from the extracted slots and the raw query.
// Handlers are idempotent reads; an error or empty result sends the
// dispatcher down the fallback chain.
type Handler func(ctx context.Context, slots nlp.Slots, query string) (*Result, error)

// Registry is a read-only lookup from intent name to handler.
type Registry struct {
	store    *store.Store
	cache    *cache.Cache
	handlers map[string]Handler
}

// NewRegistry wires every intent to its handler. Each intent is registered
// exactly once; Intents() makes coverage testable by enumeration.
func NewRegistry(st *store.Store, c *cache.Cache) *Registry {
	r := &Registry{store: st, cache: c, handlers: make(map[string]Handler)}

	r.handlers["liste_materiel"] = r.listeMateriel
	r.handlers["count_materiel"] = r.countMateriel
	r.handlers["materiel_details"] = r.materielDetails
	r.handlers["affectation_materiel"] = r.affectationMateriel
	r.handlers["liste_commandes"] = r.listeCommandes
	r.handlers["count_total_commands"] = r.countCommandes("")
	r.handlers["count_pending_commands"] = r.countCommandes("en_attente")
	r.handlers["count_approved_commands"] = r.countCommandes("approuvee")
	r.handlers["commande_details"] = r.commandeDetails
	r.handlers["montant_commandes"] = r.montantCommandes
	r.handlers["liste_fournisseurs"] = r.listeFournisseurs
	r.handlers["count_fournisseurs"] = r.countFournisseurs
	r.handlers["fournisseur_details"] = r.fournisseurDetails
	r.handlers["fournisseur_ice"] = r.fournisseurICE
	r.handlers["liste_livraisons"] = r.listeLivraisons
	r.handlers["livraisons_retard"] = r.livraisonsRetard
	r.handlers["count_livraisons"] = r.countLivraisons
	r.handlers["liste_demandes"] = r.listeDemandes
	r.handlers["count_demandes_attente"] = r.countDemandesAttente
	r.handlers["warranty_details"] = r.warrantyDetails
	r.handlers["warranty_threshold"] = r.warrantyThreshold
	r.handlers["stats_parc"] = r.statsParc
	r.handlers["help"] = r.help

	return r
}

// Get returns the handler bound to an intent.
func (r *Registry) Get(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Intents lists every registered intent name.
func (r *Registry) Intents() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	return names
}
