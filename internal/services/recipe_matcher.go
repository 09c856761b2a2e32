package services

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

// MinMatchScore is the exclusive lower bound for a recipe to be suggested
const MinMatchScore = 0.2

// maxQuickSuggestions caps the number of dish ideas returned
const maxQuickSuggestions = 5

var (
	leadingAmountPattern = regexp.MustCompile(`^\d+\.?\d*\s*`)
	recipeUnitPattern    = regexp.MustCompile(`(?i)\b(cup|cups|tbsp|tsp|kg|g|ml|l|piece|pieces)s?\b\s*`)
)

// RecipeSource provides the recipe catalog
type RecipeSource interface {
	Recipes(ctx context.Context) ([]models.Recipe, error)
}

// RecipeMatcher ranks catalog recipes against available ingredients
type RecipeMatcher struct {
	catalog RecipeSource
}

// NewRecipeMatcher creates a new recipe matcher
func NewRecipeMatcher(catalog RecipeSource) *RecipeMatcher {
	return &RecipeMatcher{catalog: catalog}
}

// MatchRecipes loads the catalog and returns the recipes that can be made
// from the given ingredients, best first. A catalog failure is returned
// as an error, never as an empty result.
func (m *RecipeMatcher) MatchRecipes(ctx context.Context, ingredients []models.Ingredient) ([]models.RecipeMatch, error) {
	recipes, err := m.catalog.Recipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("match recipes: %w", err)
	}
	return FindMatches(ingredients, recipes), nil
}

// FindMatches scores every recipe, keeps those above MinMatchScore and sorts
// them by score, highest first. Ties keep catalog order.
func FindMatches(ingredients []models.Ingredient, recipes []models.Recipe) []models.RecipeMatch {
	available := ingredientNameSet(ingredients)

	matches := make([]models.RecipeMatch, 0)
	if len(available) == 0 {
		return matches
	}

	for _, recipe := range recipes {
		match := ScoreRecipe(available, recipe)
		if match.MatchScore > MinMatchScore {
			matches = append(matches, match)
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})

	return matches
}

// ScoreRecipe computes the fraction of a recipe's ingredients covered by the
// available (lower-cased) names. Matched and missing keep recipe order.
func ScoreRecipe(available map[string]struct{}, recipe models.Recipe) models.RecipeMatch {
	matched := make([]string, 0, len(recipe.Ingredients))
	missing := make([]string, 0)

	for _, raw := range recipe.Ingredients {
		name := CanonicalIngredientName(raw)
		if hasIngredient(available, name) {
			matched = append(matched, name)
		} else {
			missing = append(missing, name)
		}
	}

	score := 0.0
	if len(recipe.Ingredients) > 0 {
		score = float64(len(matched)) / float64(len(recipe.Ingredients))
	}

	return models.RecipeMatch{
		Recipe:             recipe,
		MatchScore:         score,
		MatchedIngredients: matched,
		MissingIngredients: missing,
	}
}

// CanonicalIngredientName reduces a recipe line such as "2 cups basmati rice"
// to its first significant word ("basmati"), lower-cased.
func CanonicalIngredientName(raw string) string {
	cleaned := leadingAmountPattern.ReplaceAllString(raw, "")

	if loc := recipeUnitPattern.FindStringIndex(cleaned); loc != nil {
		cleaned = cleaned[:loc[0]] + cleaned[loc[1]:]
	}
	cleaned = strings.TrimSpace(cleaned)

	name := cleaned
	for _, word := range strings.Split(cleaned, " ") {
		if len([]rune(word)) > 2 {
			name = word
			break
		}
	}

	return strings.ToLower(name)
}

func hasIngredient(available map[string]struct{}, name string) bool {
	if _, ok := available[name]; ok {
		return true
	}
	for candidate := range available {
		if IsSimilar(candidate, name) {
			return true
		}
	}
	return false
}

func ingredientNameSet(ingredients []models.Ingredient) map[string]struct{} {
	set := make(map[string]struct{}, len(ingredients))
	for _, ing := range ingredients {
		set[strings.ToLower(ing.Name)] = struct{}{}
	}
	return set
}

// QuickSuggestions returns a few dish ideas from common ingredient combinations
// without consulting the catalog.
func QuickSuggestions(ingredients []models.Ingredient) []string {
	names := make([]string, 0, len(ingredients))
	for _, ing := range ingredients {
		names = append(names, strings.ToLower(ing.Name))
	}

	anyContains := func(part string) bool {
		for _, n := range names {
			if strings.Contains(n, part) {
				return true
			}
		}
		return false
	}

	var suggestions []string
	if anyContains("rice") {
		suggestions = append(suggestions, "Fried Rice with available vegetables")
	}
	if anyContains("egg") {
		suggestions = append(suggestions, "Scrambled Eggs or Omelette")
	}
	if anyContains("potato") {
		suggestions = append(suggestions, "Potato Curry or Mashed Potatoes")
	}
	if anyContains("tomato") && anyContains("onion") {
		suggestions = append(suggestions, "Tomato-Onion Curry Base")
	}
	if anyContains("chicken") {
		suggestions = append(suggestions, "Chicken Stir Fry or Curry")
	}
	if len(names) >= 3 {
		suggestions = append(suggestions, "Mixed Vegetable Stir Fry", "Soup with available ingredients")
	}

	if len(suggestions) > maxQuickSuggestions {
		suggestions = suggestions[:maxQuickSuggestions]
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	return suggestions
}
