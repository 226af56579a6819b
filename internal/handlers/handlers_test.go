package handlers

import (
	"context"
	"strings"
	"testing"

	"github.com/parcdesk/parcbot/internal/cache"
	"github.com/parcdesk/parcbot/internal/intent"
	"github.com/parcdesk/parcbot/internal/nlp"
	"github.com/parcdesk/parcbot/internal/store"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	ctx := context.Background()
	if err := st.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	if err := st.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	return NewRegistry(st, cache.New())
}

func TestRegistryCoversEveryIntent(t *testing.T) {
	r := newTestRegistry(t)
	for _, name := range intent.NewTable().Names() {
		if _, ok := r.Get(name); !ok {
			t.Errorf("intent %q has no handler", name)
		}
	}
}

func TestGetUnknownIntent(t *testing.T) {
	r := newTestRegistry(t)
	if _, ok := r.Get("does_not_exist"); ok {
		t.Error("unknown intent must not resolve")
	}
}

func run(t *testing.T, r *Registry, name string, slots nlp.Slots, query string) *Result {
	t.Helper()
	h, ok := r.Get(name)
	if !ok {
		t.Fatalf("no handler for %q", name)
	}
	res, err := h(context.Background(), slots, query)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	if res == nil {
		t.Fatalf("%s returned nil result", name)
	}
	return res
}

func TestListeMateriel(t *testing.T) {
	r := newTestRegistry(t)

	res := run(t, r, "liste_materiel", nlp.Slots{}, "liste du materiel")
	if !strings.Contains(res.Text, "6 materiel(s)") || !strings.Contains(res.Text, "PC-123") {
		t.Errorf("unexpected listing:\n%s", res.Text)
	}

	slots := nlp.Slots{nlp.SlotStatus: {Type: nlp.SlotStatus, Value: "disponible"}}
	res = run(t, r, "liste_materiel", slots, "materiel disponible")
	if !strings.Contains(res.Text, "2 materiel(s)") {
		t.Errorf("status filter not applied:\n%s", res.Text)
	}
}

func TestCountMateriel(t *testing.T) {
	r := newTestRegistry(t)
	res := run(t, r, "count_materiel", nlp.Slots{}, "combien de materiels")
	if !strings.Contains(res.Text, "6 materiel(s)") {
		t.Errorf("got %q", res.Text)
	}
}

func TestMaterielDetails(t *testing.T) {
	r := newTestRegistry(t)

	slots := nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "PC-101"}}
	res := run(t, r, "materiel_details", slots, "details du pc-101")
	for _, want := range []string{"PC-101", "Dell", "SN4F7K2P9", "karim alaoui"} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("details missing %q:\n%s", want, res.Text)
		}
	}

	slots = nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "PC-999"}}
	res = run(t, r, "materiel_details", slots, "details du pc-999")
	if !res.NotFound {
		t.Error("missing code must mark NotFound")
	}

	res = run(t, r, "materiel_details", nlp.Slots{}, "details du materiel")
	if !res.NotFound || !strings.Contains(res.Text, "Precisez") {
		t.Errorf("no slot: got %q", res.Text)
	}
}

func TestAffectationMateriel(t *testing.T) {
	r := newTestRegistry(t)

	slots := nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "PC-102"}}
	res := run(t, r, "affectation_materiel", slots, "qui utilise le pc-102")
	if !strings.Contains(res.Text, "samira bennis") {
		t.Errorf("got %q", res.Text)
	}

	slots = nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "PC-123"}}
	res = run(t, r, "affectation_materiel", slots, "qui utilise le pc-123")
	if !strings.Contains(res.Text, "personne") {
		t.Errorf("unassigned material: got %q", res.Text)
	}

	slots = nlp.Slots{nlp.SlotUser: {Type: nlp.SlotUser, Value: "karim"}}
	res = run(t, r, "affectation_materiel", slots, "materiel de karim")
	if !strings.Contains(res.Text, "karim alaoui") || !strings.Contains(res.Text, "PC-101") {
		t.Errorf("by user: got %q", res.Text)
	}

	// A known user without equipment is told apart from an unknown name.
	slots = nlp.Slots{nlp.SlotUser: {Type: nlp.SlotUser, Value: "youssef"}}
	res = run(t, r, "affectation_materiel", slots, "materiel de youssef")
	if !res.NotFound || !strings.Contains(res.Text, "youssef idrissi") || !strings.Contains(res.Text, "logistique") {
		t.Errorf("user without equipment: got %q", res.Text)
	}

	slots = nlp.Slots{nlp.SlotUser: {Type: nlp.SlotUser, Value: "personne inconnue"}}
	res = run(t, r, "affectation_materiel", slots, "materiel de personne inconnue")
	if !res.NotFound || !strings.Contains(res.Text, "Aucun utilisateur") {
		t.Errorf("unknown user: got %q", res.Text)
	}
}

func TestCountCommandes(t *testing.T) {
	r := newTestRegistry(t)

	res := run(t, r, "count_total_commands", nlp.Slots{}, "combien de commandes")
	if !strings.Contains(res.Text, "4 commande(s) au total") {
		t.Errorf("got %q", res.Text)
	}
	res = run(t, r, "count_pending_commands", nlp.Slots{}, "commandes en attente")
	if !strings.Contains(res.Text, "2 commande(s) en attente") {
		t.Errorf("got %q", res.Text)
	}
	res = run(t, r, "count_approved_commands", nlp.Slots{}, "commandes approuvees")
	if !strings.Contains(res.Text, "1 commande(s) approuvee(s)") {
		t.Errorf("got %q", res.Text)
	}
}

func TestCommandeDetails(t *testing.T) {
	r := newTestRegistry(t)

	slots := nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "BC-23"}}
	res := run(t, r, "commande_details", slots, "statut de bc-23")
	if !strings.Contains(res.Text, "Atlas Informatique") || !strings.Contains(res.Text, "45800.00 DH") {
		t.Errorf("got %q", res.Text)
	}

	slots = nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "BC-99"}}
	res = run(t, r, "commande_details", slots, "statut de bc-99")
	if !res.NotFound {
		t.Error("missing order must mark NotFound")
	}
}

func TestMontantCommandes(t *testing.T) {
	r := newTestRegistry(t)
	res := run(t, r, "montant_commandes", nlp.Slots{}, "montant total des commandes")
	if !strings.Contains(res.Text, "94650.00 DH") {
		t.Errorf("got %q", res.Text)
	}
}

func TestFournisseurHandlers(t *testing.T) {
	r := newTestRegistry(t)

	res := run(t, r, "liste_fournisseurs", nlp.Slots{}, "liste des fournisseurs")
	if !strings.Contains(res.Text, "3 fournisseur(s)") || !strings.Contains(res.Text, "TechnoPlus") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "count_fournisseurs", nlp.Slots{}, "combien de fournisseurs")
	if !strings.Contains(res.Text, "3 fournisseur(s)") {
		t.Errorf("got %q", res.Text)
	}

	slots := nlp.Slots{nlp.SlotSupplier: {Type: nlp.SlotSupplier, Value: "atlas informatique"}}
	res = run(t, r, "fournisseur_details", slots, "coordonnees d'atlas")
	if !strings.Contains(res.Text, "0522-44-55-66") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "fournisseur_ice", slots, "ice d'atlas")
	if !strings.Contains(res.Text, "002234567000089") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "fournisseur_ice", nlp.Slots{}, "ice")
	if !res.NotFound || !strings.Contains(res.Text, "Precisez") {
		t.Errorf("no name: got %q", res.Text)
	}
}

func TestFournisseurSuggestion(t *testing.T) {
	r := newTestRegistry(t)

	// "marocbureau" misses the LIKE lookup but is close to a stored name.
	slots := nlp.Slots{nlp.SlotSupplier: {Type: nlp.SlotSupplier, Value: "marocbureau"}}
	res := run(t, r, "fournisseur_details", slots, "coordonnees de marocbureau")
	if !res.NotFound {
		t.Fatal("expected a miss")
	}
	if !strings.Contains(res.Text, "Vouliez-vous dire \"Maroc Bureau\"") {
		t.Errorf("expected a suggestion, got %q", res.Text)
	}

	slots = nlp.Slots{nlp.SlotSupplier: {Type: nlp.SlotSupplier, Value: "zzz"}}
	res = run(t, r, "fournisseur_details", slots, "coordonnees de zzz")
	if !res.NotFound || strings.Contains(res.Text, "Vouliez-vous dire") {
		t.Errorf("nonsense name must not suggest, got %q", res.Text)
	}
}

func TestLivraisonHandlers(t *testing.T) {
	r := newTestRegistry(t)

	res := run(t, r, "liste_livraisons", nlp.Slots{}, "liste des livraisons")
	if !strings.Contains(res.Text, "3 livraison(s)") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "livraisons_retard", nlp.Slots{}, "livraisons en retard")
	if !strings.Contains(res.Text, "BL-12") || !strings.Contains(res.Text, "BL-13") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "count_livraisons", nlp.Slots{}, "combien de livraisons")
	if !strings.Contains(res.Text, "3 livraison(s)") {
		t.Errorf("got %q", res.Text)
	}
}

func TestLateDeliveryCountMatchesListing(t *testing.T) {
	r := newTestRegistry(t)

	// Lateness is a date condition; the count and the listing must agree
	// even though no row carries an "en_retard" status.
	slots := nlp.Slots{nlp.SlotStatus: {Type: nlp.SlotStatus, Value: "en_retard"}}
	count := run(t, r, "count_livraisons", slots, "combien de livraisons en retard")
	if !strings.Contains(count.Text, "2 livraison(s) en retard") {
		t.Errorf("count: got %q", count.Text)
	}

	list := run(t, r, "livraisons_retard", slots, "quelles livraisons sont en retard")
	if !strings.Contains(list.Text, "2 livraison(s) en retard") {
		t.Errorf("list: got %q", list.Text)
	}
}

func TestDemandeHandlers(t *testing.T) {
	r := newTestRegistry(t)

	res := run(t, r, "liste_demandes", nlp.Slots{}, "liste des demandes")
	if !strings.Contains(res.Text, "3 demande(s)") || !strings.Contains(res.Text, "DEM-31") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "count_demandes_attente", nlp.Slots{}, "demandes en attente")
	if !strings.Contains(res.Text, "1 demande(s) en attente") {
		t.Errorf("got %q", res.Text)
	}
}

func TestWarrantyDetails(t *testing.T) {
	r := newTestRegistry(t)

	slots := nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "PC-101"}}
	res := run(t, r, "warranty_details", slots, "garantie du pc-101")
	if !strings.Contains(res.Text, "2027-03-15") {
		t.Errorf("got %q", res.Text)
	}

	// Warranty asked on an order code reports through the order.
	slots = nlp.Slots{nlp.SlotCode: {Type: nlp.SlotCode, Value: "BC-23"}}
	res = run(t, r, "warranty_details", slots, "garantie de bc-23")
	if !strings.Contains(res.Text, "BC-23") || !strings.Contains(res.Text, "Atlas Informatique") {
		t.Errorf("got %q", res.Text)
	}

	res = run(t, r, "warranty_details", nlp.Slots{}, "garantie")
	if !res.NotFound {
		t.Error("no reference must mark NotFound")
	}
}

func TestWarrantyThreshold(t *testing.T) {
	r := newTestRegistry(t)

	// Every seeded warranty ends within 120 months, so "less than" catches all.
	slots := nlp.Slots{nlp.SlotThreshold: {Type: nlp.SlotThreshold, Value: "120", Op: "lt"}}
	res := run(t, r, "warranty_threshold", slots, "materiels avec moins de 120 mois de garantie")
	if !strings.Contains(res.Text, "6 materiel(s) avec moins de 120 mois") {
		t.Errorf("got %q", res.Text)
	}

	slots = nlp.Slots{nlp.SlotThreshold: {Type: nlp.SlotThreshold, Value: "120", Op: "gt"}}
	res = run(t, r, "warranty_threshold", slots, "materiels avec plus de 120 mois de garantie")
	if !res.NotFound {
		t.Errorf("impossible threshold must come back empty, got %q", res.Text)
	}
}

func TestStatsParc(t *testing.T) {
	r := newTestRegistry(t)
	res := run(t, r, "stats_parc", nlp.Slots{}, "statistiques du parc")
	for _, want := range []string{"6 materiel(s)", "4 commande(s)", "2 en attente", "3 fournisseur(s)", "94650.00 DH"} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("stats missing %q:\n%s", want, res.Text)
		}
	}
}

func TestHelp(t *testing.T) {
	r := newTestRegistry(t)
	res := run(t, r, "help", nlp.Slots{}, "aide")
	if res.Text != HelpText {
		t.Errorf("help must return the canonical text")
	}
}

func TestGeneric(t *testing.T) {
	r := newTestRegistry(t)
	ctx := context.Background()

	res, err := r.Generic(ctx, nlp.Slots{}, "atlas")
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || !strings.Contains(res.Text, "[fournisseur]") {
		t.Errorf("got %+v", res)
	}

	// Stop words only: nothing to search for.
	res, err = r.Generic(ctx, nlp.Slots{}, "quel est le")
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Errorf("stop-word query must yield nil, got %q", res.Text)
	}

	res, err = r.Generic(ctx, nlp.Slots{}, "xyzzy introuvable")
	if err != nil {
		t.Fatal(err)
	}
	if res != nil {
		t.Errorf("no hits must yield nil, got %q", res.Text)
	}
}

func TestRetrieve(t *testing.T) {
	r := newTestRegistry(t)
	lines, err := r.Retrieve(context.Background(), nlp.Slots{}, "lenovo", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 1 || !strings.Contains(lines[0], "PC-123") {
		t.Errorf("got %v", lines)
	}
}
