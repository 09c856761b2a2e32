package services

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxTypoDistance is the largest edit distance still treated as a typo
const maxTypoDistance = 2

// IsSimilar reports whether two ingredient names refer to the same thing:
// one contains the other, they differ by a trailing "s", or they are within
// a small edit distance.
func IsSimilar(a, b string) bool {
	a = strings.ToLower(a)
	b = strings.ToLower(b)

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return true
	}

	if a == b+"s" || b == a+"s" {
		return true
	}

	return LevenshteinDistance(a, b) <= maxTypoDistance
}

// LevenshteinDistance is the unit-cost edit distance between a and b, counted in runes
func LevenshteinDistance(a, b string) int {
	return levenshtein.ComputeDistance(a, b)
}
