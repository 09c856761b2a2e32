package models

import "strings"

// Difficulty is how hard a recipe is to cook
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// Valid reports whether d is one of the known difficulty levels
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// Category is the meal slot a recipe belongs to
type Category string

const (
	CategoryBreakfast Category = "Breakfast"
	CategoryLunch     Category = "Lunch"
	CategoryDinner    Category = "Dinner"
	CategorySnack     Category = "Snack"
	CategoryDessert   Category = "Dessert"
)

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	switch c {
	case CategoryBreakfast, CategoryLunch, CategoryDinner, CategorySnack, CategoryDessert:
		return true
	}
	return false
}

// DefaultServings is used when a catalog entry omits servings
const DefaultServings = 4

// Recipe is a catalog entry. Ingredients are free-text strings such as "2 cups rice".
type Recipe struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Description     string     `json:"description"`
	Ingredients     []string   `json:"ingredients"`
	Instructions    []string   `json:"instructions"`
	PrepTimeMinutes int        `json:"prep_time_minutes"`
	Servings        int        `json:"servings"`
	Difficulty      Difficulty `json:"difficulty"`
	Category        Category   `json:"category"`
	Tags            []string   `json:"tags"`
	ImageURL        *string    `json:"image_url,omitempty"`
}

// HasTag reports whether the recipe carries tag, ignoring case
func (r *Recipe) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// RecipeMatch is a recipe scored against a set of available ingredients
type RecipeMatch struct {
	Recipe             Recipe   `json:"recipe"`
	MatchScore         float64  `json:"match_score"`
	MatchedIngredients []string `json:"matched_ingredients"`
	MissingIngredients []string `json:"missing_ingredients"`
}

// MatchRequest is the body of an ad-hoc matching request
type MatchRequest struct {
	Ingredients []IngredientInput `json:"ingredients"`
}

// RecipeListParams holds catalog filter options
type RecipeListParams struct {
	Category string
	Tag      string
}
