package search

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, drops punctuation and symbols, and collapses
// runs of whitespace to single spaces. Combining marks are kept so Thai
// vowels and tone marks survive.
func Normalize(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, text)
	return strings.Join(strings.Fields(stripped), " ")
}

// EmbeddingText is the string embedded for text and matched lexically
// against items: the normalized form, or the trimmed input when
// normalization leaves nothing. Its words then never occur in a normalized
// document, so the match factor is 0 as for an empty query, while the
// embedding server still receives non-empty input.
func EmbeddingText(text string) string {
	if normalized := Normalize(text); normalized != "" {
		return normalized
	}
	return strings.Join(strings.Fields(text), " ")
}

// containsThai reports whether text has any Thai-script code point.
func containsThai(text string) bool {
	for _, r := range text {
		if unicode.Is(unicode.Thai, r) {
			return true
		}
	}
	return false
}

// MatchFactor is the fraction of query words that occur as substrings of
// document. Both arguments are expected to be normalized. A query with no
// words has factor 0.
func MatchFactor(query, document string) float64 {
	words := strings.Fields(query)
	if len(words) == 0 {
		return 0
	}

	matched := 0
	for _, w := range words {
		if strings.Contains(document, w) {
			matched++
		}
	}
	return float64(matched) / float64(len(words))
}
