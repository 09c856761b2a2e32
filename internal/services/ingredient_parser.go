package services

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

// minNameLen is the shortest ingredient name (and cleaned line) that is kept
const minNameLen = 2

// IngredientParser turns recognized grocery-list text into structured ingredients.
// It holds only compiled patterns and is safe for concurrent use.
type IngredientParser struct {
	whitespacePattern  *regexp.Regexp
	misreadOnePattern  *regexp.Regexp
	misreadZeroPattern *regexp.Regexp
	strayCharPattern   *regexp.Regexp
	dashPattern        *regexp.Regexp
	namePunctPattern   *regexp.Regexp
}

// NewIngredientParser creates a new parser instance
func NewIngredientParser() *IngredientParser {
	return &IngredientParser{
		whitespacePattern: regexp.MustCompile(`\s+`),

		// OCR reads the digit 1 as I and 0 as O in front of a unit letter: "Ikg", "O l"
		misreadOnePattern:  regexp.MustCompile(`\bI\s*([kKgGmMlL])\b`),
		misreadZeroPattern: regexp.MustCompile(`\bO\s*([kKgGmMlL])\b`),

		// Everything but word chars, whitespace, dots and dashes
		strayCharPattern: regexp.MustCompile(`[^\w\s.\-–—]`),

		// "Item - 2kg" with hyphen, en dash or em dash
		dashPattern: regexp.MustCompile(`(.+?)\s*[-–—]\s*(.+)`),

		namePunctPattern: regexp.MustCompile(`[-–—:,.]`),
	}
}

// Parse converts an OCR result into a deduplicated ingredient list.
// Block lines are parsed first; when none yield an ingredient the full text
// is split on newlines instead. An unsuccessful result yields an empty list.
func (p *IngredientParser) Parse(result models.RecognitionResult) []models.Ingredient {
	if !result.Success {
		return []models.Ingredient{}
	}

	var lines []string
	for _, block := range result.Blocks {
		for _, line := range block.Lines {
			lines = append(lines, line.Text)
		}
	}

	items := p.parseLines(lines)
	if len(items) == 0 && strings.TrimSpace(result.Text) != "" {
		items = p.parseLines(strings.Split(result.Text, "\n"))
	}

	return dedupeIngredients(items)
}

// ParseText parses raw newline-separated text, as typed by a user or
// returned by an OCR engine without block structure.
func (p *IngredientParser) ParseText(raw string) []models.Ingredient {
	if strings.TrimSpace(raw) == "" {
		return []models.Ingredient{}
	}
	return dedupeIngredients(p.parseLines(strings.Split(raw, "\n")))
}

func (p *IngredientParser) parseLines(lines []string) []models.Ingredient {
	var items []models.Ingredient
	for _, line := range lines {
		if item := p.ParseLine(line); item != nil {
			items = append(items, *item)
		}
	}
	return items
}

// ParseLine parses a single line such as "Rice - 2kg" or "3 cups flour".
// It returns nil when the line holds no usable ingredient name.
func (p *IngredientParser) ParseLine(line string) *models.Ingredient {
	if strings.TrimSpace(line) == "" {
		return nil
	}

	cleaned := p.cleanText(line)
	if utf8.RuneCountInString(cleaned) < minNameLen {
		return nil
	}

	quantity := models.DefaultQuantity
	unit := models.DefaultUnit
	name := cleaned

	if m := p.dashPattern.FindStringSubmatch(cleaned); m != nil {
		name = strings.TrimSpace(m[1])
		if q, ok := ExtractQuantityAndUnit(strings.TrimSpace(m[2])); ok {
			quantity, unit = q.Amount, q.Unit
		}
	} else if q, ok := ExtractQuantityAndUnit(cleaned); ok {
		quantity, unit = q.Amount, q.Unit
		name = stripQuantity(cleaned, quantity, unit)
	}

	name = p.namePunctPattern.ReplaceAllString(name, " ")
	name = strings.TrimSpace(p.whitespacePattern.ReplaceAllString(name, " "))
	if utf8.RuneCountInString(name) < minNameLen {
		return nil
	}

	return &models.Ingredient{
		Name:       capitalizeFirst(strings.ToLower(name)),
		Quantity:   quantity,
		Unit:       unit,
		Confidence: models.ParsedConfidence,
	}
}

// cleanText normalizes whitespace, repairs common OCR digit misreads and
// drops punctuation other than dots and dashes.
func (p *IngredientParser) cleanText(text string) string {
	text = p.whitespacePattern.ReplaceAllString(text, " ")
	text = p.misreadOnePattern.ReplaceAllString(text, "1${1}")
	text = p.misreadZeroPattern.ReplaceAllString(text, "0${1}")
	text = p.strayCharPattern.ReplaceAllString(text, " ")
	text = p.whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// stripQuantity removes every "2 kg" and "kg 2" occurrence, ignoring case
func stripQuantity(text, quantity, unit string) string {
	q := regexp.QuoteMeta(quantity)
	u := regexp.QuoteMeta(unit)
	text = regexp.MustCompile(`(?i)`+q+`\s*`+u).ReplaceAllString(text, "")
	text = regexp.MustCompile(`(?i)`+u+`\s*`+q).ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

func capitalizeFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// dedupeIngredients keeps the first ingredient for each case-insensitive name
func dedupeIngredients(items []models.Ingredient) []models.Ingredient {
	seen := make(map[string]struct{}, len(items))
	result := make([]models.Ingredient, 0, len(items))
	for _, item := range items {
		key := strings.ToLower(item.Name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}
	return result
}
