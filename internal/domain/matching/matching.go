// Package matching scores similarity between short free-text fields
// (patient names, procedure descriptions) extracted from scanned documents.
// Scores are symmetric and insensitive to token order, case, and accents,
// so "García Juan" and "juan garcia" compare as the same name.
package matching

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Band classifies a similarity score against the configured thresholds.
type Band int

const (
	// Different means the two strings describe distinct entities.
	Different Band = iota
	// Variant means the same entity with a minor spelling variation.
	Variant
	// Same means the strings are considered equal.
	Same
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases a string, strips diacritics, and collapses whitespace.
// It is the canonical normalization applied to every comparison field.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// Tokens returns the folded tokens of s in sorted order.
func Tokens(s string) []string {
	tokens := strings.Fields(Fold(s))
	sort.Strings(tokens)
	return tokens
}

// Similarity returns a score in [0,1] for two strings. Both sides are folded
// and token-sorted before scoring, which makes the function symmetric and
// order-insensitive. Empty input on either side scores 0.
func Similarity(a, b string) float64 {
	ta := Tokens(a)
	tb := Tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	sa := strings.Join(ta, " ")
	sb := strings.Join(tb, " ")
	if sa == sb {
		return 1.0
	}
	return jaroWinkler(sa, sb)
}

// Classify places a score into a band given the same-entity and
// variant thresholds (same > variant).
func Classify(score, same, variant float64) Band {
	switch {
	case score >= same:
		return Same
	case score >= variant:
		return Variant
	default:
		return Different
	}
}

// jaroWinkler computes the Jaro-Winkler similarity of two pre-folded strings.
func jaroWinkler(s1, s2 string) float64 {
	s1Len := len(s1)
	s2Len := len(s2)
	if s1Len == 0 || s2Len == 0 {
		return 0.0
	}

	maxDist := s1Len
	if s2Len > maxDist {
		maxDist = s2Len
	}
	maxDist = maxDist/2 - 1
	if maxDist < 0 {
		maxDist = 0
	}

	s1Matches := make([]bool, s1Len)
	s2Matches := make([]bool, s2Len)

	matches := 0
	for i := 0; i < s1Len; i++ {
		start := i - maxDist
		if start < 0 {
			start = 0
		}
		end := i + maxDist + 1
		if end > s2Len {
			end = s2Len
		}
		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < s1Len; i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	jaro := (float64(matches)/float64(s1Len) +
		float64(matches)/float64(s2Len) +
		float64(matches-transpositions/2)/float64(matches)) / 3.0

	// Winkler boost for a shared prefix of up to 4 characters.
	prefixLen := 0
	maxPrefix := 4
	if s1Len < maxPrefix {
		maxPrefix = s1Len
	}
	if s2Len < maxPrefix {
		maxPrefix = s2Len
	}
	for i := 0; i < maxPrefix; i++ {
		if s1[i] != s2[i] {
			break
		}
		prefixLen++
	}

	return jaro + float64(prefixLen)*0.1*(1.0-jaro)
}
