// Package textutil provides the text normalization and date recognition
// primitives shared by the extraction gates. All patterns are compiled once
// at package init; per-call work is matching only.
package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldAccents strips combining marks after NFD decomposition, so "Université"
// and "Universite" normalize identically.
var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeForMatching lowercases, strips accents and quoting, and collapses
// whitespace. Lexicon matching throughout the engine runs on this form.
func NormalizeForMatching(s string) string {
	if s == "" {
		return ""
	}
	folded, _, err := transform.String(foldAccents, s)
	if err != nil {
		// Fall back to the raw string; matching degrades but never fails.
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		switch r {
		case '\'', '’', '"', '«', '»', '“', '”':
			return ' '
		}
		return r
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// CollapseSpaces trims and collapses internal whitespace without touching
// case or accents.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TitleCaseRatio returns the fraction of words starting with an uppercase
// letter. Multi-word title-case runs are an organization-name signal.
func TitleCaseRatio(s string) (ratio float64, words int) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, 0
	}
	capped := 0
	for _, w := range fields {
		r := []rune(w)
		if len(r) > 0 && unicode.IsUpper(r[0]) {
			capped++
		}
	}
	return float64(capped) / float64(len(fields)), len(fields)
}

// WordSet splits a normalized string into its unique words.
func WordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(NormalizeForMatching(s)) {
		out[w] = struct{}{}
	}
	return out
}

// JaccardOverlap returns |a∩b| / max(|a|, |b|) over the word sets of two
// strings. Rescue-mode merging treats overlap above 0.5 as a duplicate.
func JaccardOverlap(a, b string) float64 {
	sa, sb := WordSet(a), WordSet(b)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	common := 0
	for w := range sa {
		if _, ok := sb[w]; ok {
			common++
		}
	}
	max := len(sa)
	if len(sb) > max {
		max = len(sb)
	}
	return float64(common) / float64(max)
}
