package intent

import "testing"

func TestWithinEditDistance(t *testing.T) {
	tests := []struct {
		a, b  string
		limit int
		want  bool
	}{
		{"fornisseurs", "fournisseur", 2, true},
		{"comande", "commande", 2, true},
		{"livraisson", "livraison", 2, true},
		{"garantie", "garantie", 0, true},
		{"materiel", "commande", 2, false},
		{"abc", "xyz", 2, false},
		{"a", "abcd", 2, false},
	}
	for _, tt := range tests {
		if got := withinEditDistance(tt.a, tt.b, tt.limit); got != tt.want {
			t.Errorf("withinEditDistance(%q, %q, %d) = %v, want %v", tt.a, tt.b, tt.limit, got, tt.want)
		}
	}
}

func TestFuzzyKeywordHits(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		keywords []string
		want     int
	}{
		{
			name:     "misspelled keyword counts",
			tokens:   []string{"nos", "fornisseurs"},
			keywords: []string{"fournisseur"},
			want:     1,
		},
		{
			name:     "exact token is not a fuzzy hit",
			tokens:   []string{"commande"},
			keywords: []string{"commande"},
			want:     0,
		},
		{
			name:     "short keywords are skipped",
			tokens:   []string{"bcc"},
			keywords: []string{"bc"},
			want:     0,
		},
		{
			name:     "each keyword counts once",
			tokens:   []string{"comande", "comandes"},
			keywords: []string{"commande"},
			want:     1,
		},
		{
			name:     "unrelated tokens",
			tokens:   []string{"bonjour", "tout", "le", "monde"},
			keywords: []string{"fournisseur", "commande"},
			want:     0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fuzzyKeywordHits(tt.tokens, tt.keywords); got != tt.want {
				t.Errorf("fuzzyKeywordHits(%v, %v) = %d, want %d", tt.tokens, tt.keywords, got, tt.want)
			}
		})
	}
}
