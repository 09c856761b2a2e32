package services

import (
	"regexp"
	"strings"
)

// knownUnits is the enumerated unit vocabulary
var knownUnits = map[string]struct{}{
	"kg": {}, "g": {}, "mg": {}, "lb": {}, "oz": {},
	"l": {}, "ml": {}, "gal": {}, "qt": {}, "pt": {},
	"cup": {}, "cups": {}, "tbsp": {}, "tsp": {},
	"piece": {}, "pieces": {}, "pc": {}, "pcs": {},
	"dozen": {}, "doz": {}, "unit": {}, "units": {},
	"bunch": {}, "bag": {}, "box": {}, "can": {}, "bottle": {},
}

// maxLooseUnitLen lets short unrecognized words through as units ("pkt", "jar").
// It also accepts short ingredient words, so "2 eggs" yields unit "eggs".
const maxLooseUnitLen = 4

// quantityPatterns are tried in order; the first accepted pair wins.
var quantityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s*([a-zA-Z]+)`), // 2kg, 2 kg
	regexp.MustCompile(`(\d+(?:\.\d+)?)\s+([a-zA-Z]+)`), // 3 cups
	regexp.MustCompile(`([a-zA-Z]+)\s+(\d+(?:\.\d+)?)`), // kg 5
}

// Quantity is an extracted amount with its unit
type Quantity struct {
	Amount string
	Unit   string
}

// ExtractQuantityAndUnit finds the first numeric amount paired with a unit word.
// The amount keeps its source text ("2", "0.5"); the unit is lower-cased.
func ExtractQuantityAndUnit(text string) (Quantity, bool) {
	for _, pattern := range quantityPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		amount, unit := m[1], m[2]
		if !isNumeric(amount) {
			amount, unit = m[2], m[1]
		}
		unit = strings.ToLower(unit)

		if IsKnownUnit(unit) || len(unit) <= maxLooseUnitLen {
			return Quantity{Amount: amount, Unit: unit}, true
		}
	}
	return Quantity{}, false
}

// IsKnownUnit reports whether unit is in the enumerated vocabulary
func IsKnownUnit(unit string) bool {
	_, ok := knownUnits[strings.ToLower(unit)]
	return ok
}

// isNumeric reports whether a captured group is the digit side of a match.
// Groups are all digits or all letters, so the first byte decides.
func isNumeric(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}
