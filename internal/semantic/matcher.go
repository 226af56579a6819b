// Package semantic matches a query against pre-embedded example utterances
// per intent. The tier is optional: construction fails soft and the
// classifier runs rule-based only.
package semantic

import (
	"context"
	_ "embed"
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

//go:embed examples.yaml
var examplesYAML []byte

// Embedder is the vector service boundary, satisfied by ai.Client.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

type example struct {
	intent string
	text   string
	vector []float32
}

// Matcher holds the example corpus and its embeddings. After Warm succeeds
// the data is read-only, so concurrent Match calls need no locking.
type Matcher struct {
	embedder Embedder
	examples []example
	warmed   bool
}

// NewMatcher parses the embedded corpus. The examples keep file order so
// equal similarity scores resolve deterministically.
func NewMatcher(embedder Embedder) (*Matcher, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(examplesYAML, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse example corpus: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("example corpus is empty")
	}

	root := doc.Content[0]
	var examples []example
	for i := 0; i+1 < len(root.Content); i += 2 {
		intent := root.Content[i].Value
		list := root.Content[i+1]
		for _, item := range list.Content {
			examples = append(examples, example{intent: intent, text: item.Value})
		}
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("example corpus has no utterances")
	}
	return &Matcher{embedder: embedder, examples: examples}, nil
}

// Warm embeds the whole corpus once. Call at startup; on failure the caller
// drops the semantic tier.
func (m *Matcher) Warm(ctx context.Context) error {
	texts := make([]string, len(m.examples))
	for i, ex := range m.examples {
		texts[i] = ex.text
	}
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed example corpus: %w", err)
	}
	for i := range m.examples {
		m.examples[i].vector = vectors[i]
	}
	m.warmed = true
	return nil
}

// Match embeds the query and returns the intent of the most similar example
// with its cosine similarity. The caller applies the acceptance floor.
func (m *Matcher) Match(ctx context.Context, query string) (string, float64, error) {
	if !m.warmed {
		return "", 0, fmt.Errorf("matcher not warmed")
	}
	vectors, err := m.embedder.Embed(ctx, []string{query})
	if err != nil {
		return "", 0, err
	}
	qv := vectors[0]

	best := ""
	bestScore := -1.0
	for _, ex := range m.examples {
		score := cosine(qv, ex.vector)
		if score > bestScore {
			bestScore = score
			best = ex.intent
		}
	}
	return best, bestScore, nil
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
