package openai

import (
	"strings"
	"unicode"
)

// scrubString removes punctuation and trims whitespace from text.
func scrubString(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(".,!?;:\"'()[]{}—–", r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// trimTrailingPunct drops punctuation and whitespace from the end of s.
func trimTrailingPunct(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
}

// stripQuotes removes one pair of matching surrounding quotes.
func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	for _, q := range []string{`"`, `'`, "“”", "‘’"} {
		open, close := q, q
		if len([]rune(q)) == 2 {
			open, close = string([]rune(q)[0]), string([]rune(q)[1])
		}
		if len(s) >= len(open)+len(close) && strings.HasPrefix(s, open) && strings.HasSuffix(s, close) {
			return strings.TrimSpace(s[len(open) : len(s)-len(close)])
		}
	}
	return s
}

// firstLine returns s up to the first line break.
func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}

// stripCodeFence removes a surrounding markdown code fence.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// isKeyRune reports whether r may appear in an unquoted JSON key.
func isKeyRune(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
