package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/parcdesk/parcbot/internal/cache"
	"github.com/parcdesk/parcbot/internal/handlers"
	"github.com/parcdesk/parcbot/internal/intent"
	"github.com/parcdesk/parcbot/internal/nlp"
	"github.com/parcdesk/parcbot/internal/store"
)

type stubAnswerer struct {
	answer string
	err    error
	calls  int
}

func (s *stubAnswerer) Answer(_ context.Context, _ string, _ []string) (string, error) {
	s.calls++
	return s.answer, s.err
}

// routingTable wraps the real registry so single handlers can be swapped for
// failure-injection without mutating production wiring.
type routingTable struct {
	*handlers.Registry
	overrides map[string]handlers.Handler
}

func (rt *routingTable) Get(name string) (handlers.Handler, bool) {
	if h, ok := rt.overrides[name]; ok {
		return h, true
	}
	return rt.Registry.Get(name)
}

func newTestPipeline(t *testing.T, answerer Answerer) (*Pipeline, *routingTable) {
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
	c := cache.New()
	rt := &routingTable{
		Registry:  handlers.NewRegistry(st, c),
		overrides: make(map[string]handlers.Handler),
	}
	cls := intent.New(intent.NewTable(), nil, intent.DefaultConfig(), false)
	return New(st, rt, cls, answerer, c, DefaultConfig(), false), rt
}

func TestProcessEmptyQuery(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	for _, q := range []string{"", "   ", "\t\n"} {
		env := p.Process(context.Background(), q)
		if env.Source != "validation" {
			t.Errorf("%q: source = %s, want validation", q, env.Source)
		}
		if env.Intent != intent.EmptyQuery || env.Confidence != 0 {
			t.Errorf("%q: got intent=%s confidence=%d", q, env.Intent, env.Confidence)
		}
		if env.Response == "" {
			t.Errorf("%q: empty response", q)
		}
	}
}

func TestProcessHandlerSuccess(t *testing.T) {
	p, _ := newTestPipeline(t, nil)

	env := p.Process(context.Background(), "Liste des fournisseurs")
	if env.Source != "handler" {
		t.Fatalf("source = %s, want handler (response %q)", env.Source, env.Response)
	}
	if env.Intent != "liste_fournisseurs" {
		t.Errorf("intent = %s", env.Intent)
	}
	if env.Confidence != 95 {
		t.Errorf("confidence = %d, want 95 from the phrase boost", env.Confidence)
	}
	if !strings.Contains(env.Response, "Atlas Informatique") {
		t.Errorf("response missing supplier list:\n%s", env.Response)
	}
}

func TestProcessEndToEndScenarios(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	tests := []struct {
		query    string
		intent   string
		contains string
	}{
		{"combien de commandes en attente ?", "count_pending_commands", "2 commande(s) en attente"},
		{"ICE du fournisseur Atlas Informatique", "fournisseur_ice", "002234567000089"},
		{"garantie de PC-101", "warranty_details", "2027-03-15"},
		{"statut de la commande BC-23", "commande_details", "Atlas Informatique"},
		{"montant total des commandes", "montant_commandes", "94650.00 DH"},
		{"qui utilise le PC-102", "affectation_materiel", "samira bennis"},
		{"combien de livraisons en retard ?", "livraisons_retard", "2 livraison(s) en retard"},
		{"statistiques du parc", "stats_parc", "6 materiel(s)"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			env := p.Process(context.Background(), tt.query)
			if env.Intent != tt.intent {
				t.Errorf("intent = %s, want %s (source %s)", env.Intent, tt.intent, env.Source)
			}
			if env.Source != "handler" {
				t.Errorf("source = %s, want handler", env.Source)
			}
			if !strings.Contains(env.Response, tt.contains) {
				t.Errorf("response missing %q:\n%s", tt.contains, env.Response)
			}
		})
	}
}

func TestProcessPanicIsolation(t *testing.T) {
	p, reg := newTestPipeline(t, nil)
	reg.overrides["liste_materiel"] = func(context.Context, nlp.Slots, string) (*handlers.Result, error) {
		panic("boom")
	}

	env := p.Process(context.Background(), "liste du materiel")
	if env.Source == "handler" {
		t.Fatalf("panicking handler must fall back, got source %s", env.Source)
	}
	if env.Source != "generic" && env.Source != "llm" && env.Source != "static_help" {
		t.Errorf("source = %s, want a fallback terminal", env.Source)
	}
	if env.Response == "" {
		t.Fatal("fallback must still produce a response")
	}
}

func TestProcessHandlerErrorFallsBack(t *testing.T) {
	p, reg := newTestPipeline(t, nil)
	reg.overrides["liste_fournisseurs"] = func(context.Context, nlp.Slots, string) (*handlers.Result, error) {
		return nil, fmt.Errorf("backend unavailable")
	}

	env := p.Process(context.Background(), "liste des fournisseurs")
	if env.Source == "handler" {
		t.Fatalf("failing handler must fall back, got source %s", env.Source)
	}
	if env.Response == "" {
		t.Fatal("fallback must still produce a response")
	}
}

func TestFallbackGenericTier(t *testing.T) {
	p, reg := newTestPipeline(t, nil)
	reg.overrides["liste_fournisseurs"] = func(context.Context, nlp.Slots, string) (*handlers.Result, error) {
		return nil, fmt.Errorf("down")
	}

	// The query names a supplier, so the cross-entity search has hits.
	env := p.Process(context.Background(), "liste des fournisseurs atlas")
	if env.Source != "generic" {
		t.Fatalf("source = %s, want generic (response %q)", env.Source, env.Response)
	}
	if !strings.Contains(env.Response, "Atlas Informatique") {
		t.Errorf("generic response missing hit:\n%s", env.Response)
	}
}

func TestFallbackLLMTier(t *testing.T) {
	ans := &stubAnswerer{answer: "Reponse du modele."}
	p, reg := newTestPipeline(t, ans)
	reg.overrides["stats_parc"] = func(context.Context, nlp.Slots, string) (*handlers.Result, error) {
		return nil, fmt.Errorf("down")
	}

	// No cross-entity hit for these terms, so the chain reaches the model.
	env := p.Process(context.Background(), "statistiques du parc")
	if env.Source != "llm" {
		t.Fatalf("source = %s, want llm (response %q)", env.Source, env.Response)
	}
	if env.Response != "Reponse du modele." {
		t.Errorf("response = %q", env.Response)
	}
	if ans.calls != 1 {
		t.Errorf("answerer called %d times, want 1", ans.calls)
	}
}

func TestFallbackStaticHelpTier(t *testing.T) {
	ans := &stubAnswerer{err: fmt.Errorf("quota exhausted")}
	p, _ := newTestPipeline(t, ans)

	env := p.Process(context.Background(), "blorp gloubiboulga")
	if env.Source != "static_help" {
		t.Fatalf("source = %s, want static_help", env.Source)
	}
	if !strings.Contains(env.Response, "parc informatique") {
		t.Errorf("static help must describe capabilities:\n%s", env.Response)
	}
}

func TestCriticalFloorBlocksWeakDispatch(t *testing.T) {
	p, reg := newTestPipeline(t, nil)
	called := false
	reg.overrides["warranty_details"] = func(context.Context, nlp.Slots, string) (*handlers.Result, error) {
		called = true
		return &handlers.Result{Text: "ok"}, nil
	}

	// Scores through the rule tier well below the critical floor of 50.
	env := p.Process(context.Background(), "quelle est la date de fin de garantie d'un poste")
	if env.Source == "handler" && called {
		t.Errorf("critical intent dispatched at confidence %d, below floor", env.Confidence)
	}
}

func TestEnvelopeAlwaysWellFormed(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	queries := []string{
		"",
		"liste du materiel",
		"n'importe quoi du tout",
		"ICE du fournisseur Atlas Informatique",
		"aide",
	}
	for _, q := range queries {
		env := p.Process(context.Background(), q)
		if env.Response == "" {
			t.Errorf("%q: empty response", q)
		}
		if env.Source == "" || env.Method == "" || env.Intent == "" {
			t.Errorf("%q: incomplete envelope %+v", q, env)
		}
		if env.Confidence < 0 || env.Confidence > 100 {
			t.Errorf("%q: confidence %d out of range", q, env.Confidence)
		}
	}
}
