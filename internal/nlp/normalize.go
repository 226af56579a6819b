// Package nlp provides text normalization and entity extraction for
// French-language inventory queries.
package nlp

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lower-cases the input, strips diacritics and collapses runs of
// whitespace. Idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	folded, _, err := transform.String(foldTransformer, raw)
	if err != nil {
		// Malformed UTF-8 never aborts the pipeline; fall back to the raw text.
		folded = raw
	}

	lowered := strings.ToLower(folded)

	// Curly quotes and apostrophes show up in copy-pasted queries.
	replacer := strings.NewReplacer(
		"’", "'",
		"‘", "'",
		"“", `"`,
		"”", `"`,
		" ", " ",
	)
	lowered = replacer.Replace(lowered)

	return strings.Join(strings.Fields(lowered), " ")
}
