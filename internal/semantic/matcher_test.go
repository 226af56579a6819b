package semantic

import (
	"context"
	"fmt"
	"math"
	"testing"
)

// stubEmbedder hands out fixed vectors per text. Unknown texts get a unique
// axis so everything embeds without collisions.
type stubEmbedder struct {
	vectors map[string][]float32
	dim     int
	next    int
	err     error
}

func newStubEmbedder(dim int) *stubEmbedder {
	return &stubEmbedder{vectors: make(map[string][]float32), dim: dim}
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := s.vectors[t]
		if !ok {
			v = make([]float32, s.dim)
			v[s.next%s.dim] = 1
			s.next++
			s.vectors[t] = v
		}
		out[i] = v
	}
	return out, nil
}

func TestNewMatcherParsesCorpus(t *testing.T) {
	m, err := NewMatcher(newStubEmbedder(4))
	if err != nil {
		t.Fatalf("NewMatcher: %v", err)
	}
	if len(m.examples) == 0 {
		t.Fatal("corpus parsed to zero examples")
	}
	// File order is preserved: the corpus opens with liste_materiel.
	if m.examples[0].intent != "liste_materiel" {
		t.Errorf("first example intent = %q, want liste_materiel", m.examples[0].intent)
	}
	seen := make(map[string]bool)
	for _, ex := range m.examples {
		if ex.text == "" {
			t.Errorf("empty utterance under intent %q", ex.intent)
		}
		seen[ex.intent] = true
	}
	for _, intent := range []string{"fournisseur_ice", "warranty_threshold", "help"} {
		if !seen[intent] {
			t.Errorf("corpus has no examples for %q", intent)
		}
	}
}

func TestMatchRequiresWarm(t *testing.T) {
	m, err := NewMatcher(newStubEmbedder(4))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Match(context.Background(), "liste des fournisseurs"); err == nil {
		t.Error("Match before Warm must fail")
	}
}

func TestWarmFailsOnEmbedderError(t *testing.T) {
	emb := newStubEmbedder(4)
	emb.err = fmt.Errorf("quota exhausted")
	m, err := NewMatcher(emb)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Warm(context.Background()); err == nil {
		t.Error("Warm must propagate embedder errors")
	}
}

func TestMatchReturnsClosestIntent(t *testing.T) {
	emb := newStubEmbedder(256)
	m, err := NewMatcher(emb)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := m.Warm(ctx); err != nil {
		t.Fatalf("Warm: %v", err)
	}

	// Make the query embed onto the same axis as a known utterance.
	emb.vectors["ice de maroc bureau"] = emb.vectors["ice du fournisseur maroc bureau"]

	intent, score, err := m.Match(ctx, "ice de maroc bureau")
	if err != nil {
		t.Fatal(err)
	}
	if intent != "fournisseur_ice" {
		t.Errorf("intent = %q, want fournisseur_ice", intent)
	}
	if score < 0.999 {
		t.Errorf("score = %f, want ~1 for an identical vector", score)
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1}, []float32{1, 0}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("cosine = %f, want %f", got, tt.want)
			}
		})
	}
}
