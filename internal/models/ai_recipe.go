package models

import "time"

// AIRecipe is a recipe produced by the language model
type AIRecipe struct {
	Title              string    `json:"title"`
	Ingredients        []string  `json:"ingredients"`
	Instructions       []string  `json:"instructions"`
	CookingTimeMinutes *int      `json:"cooking_time_minutes,omitempty"`
	Tips               []string  `json:"tips"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// GenerateRecipesRequest is the body of an AI recipe request
type GenerateRecipesRequest struct {
	Ingredients []string `json:"ingredients"`
	ScanID      *string  `json:"scan_id,omitempty"`
}

// GenerateRecipesResponse carries generated recipes and whether they came from cache
type GenerateRecipesResponse struct {
	Recipes  []AIRecipe `json:"recipes"`
	CacheHit bool       `json:"cache_hit"`
}

// SuggestionsResponse carries quick dish ideas
type SuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
