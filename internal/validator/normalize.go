package validator

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// diacriticFold strips combining marks after NFD decomposition, so "José"
// normalizes to "jose". OCR output is inconsistent about accents.
var diacriticFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText lowercases, folds diacritics, strips punctuation, and
// collapses whitespace. Two textual values that normalize identically are
// treated as referring to the same entity.
func NormalizeText(s string) string {
	n := strings.ToLower(strings.TrimSpace(s))
	if folded, _, err := transform.String(diacriticFold, n); err == nil {
		n = folded
	}
	n = punctuation.ReplaceAllString(n, "")
	n = multiSpace.ReplaceAllString(n, " ")
	return strings.TrimSpace(n)
}

// EditDistance returns the Levenshtein distance between two normalized
// strings.
func EditDistance(a, b string) int {
	return levenshtein.Distance(a, b, nil)
}
