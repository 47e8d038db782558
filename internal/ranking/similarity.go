// Package ranking scores job postings against a candidate profile and orders
// them into a feed.
//
// Everything in this package is a pure function of its arguments. The
// evaluation time is always passed in by the caller, so the same inputs and
// the same "now" always produce the same feed.
package ranking

import "strings"

const (
	exactMatch     = 1.0
	substringMatch = 0.8
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Similarity is a heuristic fuzzy match of two short strings in [0, 1].
// Rules are checked in order and the first one that applies wins:
// exact match after normalization, substring containment, word overlap.
func Similarity(a, b string) float64 {
	a, b = normalize(a), normalize(b)

	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return exactMatch
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return substringMatch
	}

	return wordOverlap(strings.Fields(a), strings.Fields(b))
}

// wordOverlap counts words of a that contain, or are contained in, some word of b.
func wordOverlap(a, b []string) float64 {
	total := max(len(a), len(b))
	if total == 0 {
		return 0
	}

	covered := 0
	for _, w := range a {
		for _, bw := range b {
			if strings.Contains(bw, w) || strings.Contains(w, bw) {
				covered++
				break
			}
		}
	}

	return float64(covered) / float64(total)
}

// prefix returns at most n runes of s.
func prefix(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
