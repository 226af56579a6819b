package intent

import "strings"

// Misspelling tolerance for the scoring tier: a query token counts as a
// fuzzy hit for a keyword when its edit distance stays within one for short
// words, two otherwise. Each keyword counts at most once.

func fuzzyKeywordHits(tokens []string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if len(kw) < 4 {
			// Too short to fuzz without matching half the language.
			continue
		}
		for _, tok := range tokens {
			if tok == kw {
				// Exact hits are scored by the keyword pass, not here.
				continue
			}
			if withinEditDistance(tok, kw, maxEdits(kw)) {
				hits++
				break
			}
		}
	}
	return hits
}

func maxEdits(word string) int {
	if len(word) <= 5 {
		return 1
	}
	return 2
}

// withinEditDistance reports whether the Levenshtein distance between a and b
// is at most limit, bailing out early once a full row exceeds it.
func withinEditDistance(a, b string, limit int) bool {
	if a == b {
		return true
	}
	la, lb := len(a), len(b)
	if la-lb > limit || lb-la > limit {
		return false
	}
	prev := make([]int, lb+1)
	curr := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}
	for i := 1; i <= la; i++ {
		curr[0] = i
		best := curr[0]
		for j := 1; j <= lb; j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(min(curr[j-1]+1, prev[j]+1), prev[j-1]+cost)
			if curr[j] < best {
				best = curr[j]
			}
		}
		if best > limit {
			return false
		}
		prev, curr = curr, prev
	}
	return prev[lb] <= limit
}

func tokenize(text string) []string {
	return strings.Fields(text)
}
