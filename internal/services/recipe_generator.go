package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/config"
	"github.com/foxxcyber/pantry-chef/internal/models"
)

var (
	ErrNoIngredients       = errors.New("no ingredients provided")
	ErrGeneratorDisabled   = errors.New("recipe generation is disabled")
	ErrNoRecipesGenerated  = errors.New("the model returned no recipes")
	ErrGeneratorUnexpected = errors.New("unexpected response from the model")
)

const (
	defaultAITitle     = "AI Generated Recipe"
	fallbackAITitle    = "AI Recipe Suggestion"
	maxFallbackLines   = 10
	minUntitledLineLen = 5
	aiCacheKeyPrefix   = "ai:recipes:"
)

const systemPrompt = "You are a helpful cooking assistant. Generate creative and practical recipes using the given ingredients."

const userPromptTemplate = `Create 2 simple recipes using these ingredients: %s

For each recipe, provide:
1. Recipe name
2. Ingredients needed (with quantities)
3. Step-by-step instructions
4. Cooking time in minutes
5. One helpful tip

Format each recipe clearly with headers.`

// ChatMessage is one message of an OpenAI-compatible chat completion
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// RecipeCache stores generated recipes by ingredient set
type RecipeCache interface {
	Get(ctx context.Context, key string) ([]models.AIRecipe, bool, error)
	Set(ctx context.Context, key string, recipes []models.AIRecipe) error
}

// RecipeGenerator asks a chat-completions model for recipes
type RecipeGenerator struct {
	enabled   bool
	client    *resty.Client
	model     string
	maxTokens int
	cache     RecipeCache
	logger    *zap.Logger
	now       func() time.Time
}

// NewRecipeGenerator creates a generator from the LLM settings in cfg.
// cache may be nil.
func NewRecipeGenerator(cfg *config.Config, cache RecipeCache, logger *zap.Logger) *RecipeGenerator {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.LLMBaseURL, "/")).
		SetTimeout(cfg.LLMTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Title", "Pantry Chef")
	if cfg.LLMAPIKey != "" {
		client.SetHeader("Authorization", "Bearer "+cfg.LLMAPIKey)
	}

	return &RecipeGenerator{
		enabled:   cfg.LLMEnabled,
		client:    client,
		model:     cfg.LLMModel,
		maxTokens: cfg.LLMMaxTokens,
		cache:     cache,
		logger:    logger.Named("generator"),
		now:       time.Now,
	}
}

// Enabled reports whether generation is configured
func (g *RecipeGenerator) Enabled() bool {
	return g != nil && g.enabled
}

// Generate returns recipes for the given ingredient names, from cache when possible
func (g *RecipeGenerator) Generate(ctx context.Context, ingredients []string) (*models.GenerateRecipesResponse, error) {
	if !g.Enabled() {
		return nil, ErrGeneratorDisabled
	}

	names := cleanNames(ingredients)
	if len(names) == 0 {
		return nil, ErrNoIngredients
	}

	key := AICacheKey(names)
	if g.cache != nil {
		recipes, ok, err := g.cache.Get(ctx, key)
		if err != nil {
			g.logger.Warn("recipe cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			return &models.GenerateRecipesResponse{Recipes: recipes, CacheHit: true}, nil
		}
	}

	content, err := g.complete(ctx, BuildPrompt(names))
	if err != nil {
		return nil, err
	}

	recipes := ParseAIRecipes(content, g.now())
	if len(recipes) == 0 {
		return nil, ErrNoRecipesGenerated
	}
	g.logger.Info("recipes generated", zap.Int("count", len(recipes)), zap.Int("ingredients", len(names)))

	if g.cache != nil {
		if err := g.cache.Set(ctx, key, recipes); err != nil {
			g.logger.Warn("recipe cache write failed", zap.String("key", key), zap.Error(err))
		}
	}

	return &models.GenerateRecipesResponse{Recipes: recipes}, nil
}

func (g *RecipeGenerator) complete(ctx context.Context, messages []ChatMessage) (string, error) {
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(chatRequest{Model: g.model, Messages: messages, MaxTokens: g.maxTokens}).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrGeneratorUnexpected, resp.StatusCode(), resp.String())
	}

	var result chatResponse
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneratorUnexpected, err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrGeneratorUnexpected)
	}

	return result.Choices[0].Message.Content, nil
}

// BuildPrompt returns the system and user messages for a recipe request
func BuildPrompt(ingredients []string) []ChatMessage {
	return []ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(userPromptTemplate, strings.Join(ingredients, ", "))},
	}
}

// AICacheKey builds an order-insensitive cache key for an ingredient set
func AICacheKey(ingredients []string) string {
	seen := make(map[string]struct{}, len(ingredients))
	keys := make([]string, 0, len(ingredients))
	for _, name := range ingredients {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		keys = append(keys, name)
	}
	sort.Strings(keys)
	return aiCacheKeyPrefix + strings.Join(keys, ",")
}

func cleanNames(ingredients []string) []string {
	names := make([]string, 0, len(ingredients))
	for _, name := range ingredients {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

var (
	recipeSplitPattern = regexp.MustCompile(`(?im)^[ \t#*]*recipe(?:[ \t]*#?\d+)?[ \t]*(?:[:.)-]|$)`)

	titleHeaderPattern        = regexp.MustCompile(`(?i)^(?:recipe\s+)?(?:name|title)\s*:\s*(.*)$`)
	ingredientsHeaderPattern  = regexp.MustCompile(`(?i)^ingredients?\b[^:]*:\s*(.*)$`)
	instructionsHeaderPattern = regexp.MustCompile(`(?i)^(?:instructions?|steps?|directions|method)\b[^:]*:\s*(.*)$`)
	timeHeaderPattern         = regexp.MustCompile(`(?i)^(?:cooking\s+)?time\b[^:]*:\s*(.*)$`)
	tipsHeaderPattern         = regexp.MustCompile(`(?i)^(?:helpful\s+)?tips?\b[^:]*:\s*(.*)$`)

	listMarkerPattern = regexp.MustCompile(`^(?:[-*•]\s*|\d+[.)](?:\s+|$))`)
	minutesPattern    = regexp.MustCompile(`\d+`)
)

type aiSection int

const (
	sectionNone aiSection = iota
	sectionTitle
	sectionIngredients
	sectionInstructions
	sectionTime
	sectionTips
)

// ParseAIRecipes extracts recipes from free-form model output. Sections are
// split on "Recipe N" markers and read line by line under name, ingredients,
// instructions, time and tips headers. Output that yields no recipe but is
// not blank becomes a single fallback recipe of its first lines.
func ParseAIRecipes(text string, now time.Time) []models.AIRecipe {
	recipes := []models.AIRecipe{}
	for _, section := range recipeSplitPattern.Split(text, -1) {
		if strings.TrimSpace(section) == "" {
			continue
		}
		if recipe, ok := parseAISection(section, now); ok {
			recipes = append(recipes, recipe)
		}
	}

	if len(recipes) == 0 && strings.TrimSpace(text) != "" {
		recipes = append(recipes, fallbackRecipe(text, now))
	}
	return recipes
}

func parseAISection(section string, now time.Time) (models.AIRecipe, bool) {
	recipe := models.AIRecipe{
		Title:        defaultAITitle,
		Ingredients:  []string{},
		Instructions: []string{},
		Tips:         []string{},
		GeneratedAt:  now,
	}
	current := sectionNone

	for _, raw := range strings.Split(section, "\n") {
		line := cleanAILine(raw)
		if line == "" {
			continue
		}

		if m := titleHeaderPattern.FindStringSubmatch(line); m != nil {
			if title := strings.TrimSpace(m[1]); title != "" {
				recipe.Title = title
			}
			current = sectionTitle
			continue
		}
		if m := ingredientsHeaderPattern.FindStringSubmatch(line); m != nil {
			current = sectionIngredients
			appendListItem(&recipe.Ingredients, m[1])
			continue
		}
		if m := instructionsHeaderPattern.FindStringSubmatch(line); m != nil {
			current = sectionInstructions
			appendListItem(&recipe.Instructions, m[1])
			continue
		}
		if m := timeHeaderPattern.FindStringSubmatch(line); m != nil {
			current = sectionTime
			if minutes, err := strconv.Atoi(minutesPattern.FindString(m[1])); err == nil {
				recipe.CookingTimeMinutes = &minutes
			}
			continue
		}
		if m := tipsHeaderPattern.FindStringSubmatch(line); m != nil {
			current = sectionTips
			appendListItem(&recipe.Tips, m[1])
			continue
		}

		switch current {
		case sectionIngredients:
			appendListItem(&recipe.Ingredients, line)
		case sectionInstructions:
			appendListItem(&recipe.Instructions, line)
		case sectionTips:
			appendListItem(&recipe.Tips, line)
		case sectionNone:
			if recipe.Title == defaultAITitle && len(line) > minUntitledLineLen {
				recipe.Title = line
			}
		}
	}

	return recipe, len(recipe.Ingredients) > 0 || len(recipe.Instructions) > 0
}

// cleanAILine trims whitespace, markdown emphasis and heading marks, and a
// leading bullet or list number
func cleanAILine(line string) string {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "#")
	line = strings.ReplaceAll(line, "**", "")
	line = listMarkerPattern.ReplaceAllString(strings.TrimSpace(line), "")
	return strings.TrimSpace(line)
}

func appendListItem(list *[]string, item string) {
	item = strings.TrimSpace(listMarkerPattern.ReplaceAllString(strings.TrimSpace(item), ""))
	if item != "" {
		*list = append(*list, item)
	}
}

func fallbackRecipe(text string, now time.Time) models.AIRecipe {
	instructions := []string{}
	for _, line := range strings.Split(text, "\n") {
		if len(instructions) == maxFallbackLines {
			break
		}
		if line = strings.TrimSpace(line); line != "" {
			instructions = append(instructions, line)
		}
	}
	return models.AIRecipe{
		Title:        fallbackAITitle,
		Ingredients:  []string{},
		Instructions: instructions,
		Tips:         []string{},
		GeneratedAt:  now,
	}
}
