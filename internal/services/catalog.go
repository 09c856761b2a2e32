package services

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

var (
	ErrCatalogLoad    = errors.New("recipe catalog unavailable")
	ErrRecipeNotFound = errors.New("recipe not found")
)

//go:embed data/recipes.json
var embeddedCatalog []byte

// CatalogSource opens the raw JSON recipe catalog
type CatalogSource interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// EmbeddedCatalog serves the catalog compiled into the binary
type EmbeddedCatalog struct{}

func (EmbeddedCatalog) Open(ctx context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(embeddedCatalog)), nil
}

func (EmbeddedCatalog) String() string { return "embedded" }

// FileCatalog reads the catalog from a local file
type FileCatalog struct {
	Path string
}

func (f FileCatalog) Open(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}

func (f FileCatalog) String() string { return "file:" + f.Path }

// ObjectDownloader fetches an object by key from object storage
type ObjectDownloader interface {
	Download(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectCatalog reads the catalog from an object in the scan bucket
type ObjectCatalog struct {
	Storage ObjectDownloader
	Key     string
}

func (o ObjectCatalog) Open(ctx context.Context) (io.ReadCloser, error) {
	return o.Storage.Download(ctx, o.Key)
}

func (o ObjectCatalog) String() string { return "object:" + o.Key }

// RecipeCatalog loads recipes lazily and keeps them for the process lifetime.
// Only a successful load is cached; after a failure the next call retries.
// Once loaded, reads do not take the lock.
type RecipeCatalog struct {
	source CatalogSource
	logger *zap.Logger

	mu      sync.Mutex // serializes loads
	recipes atomic.Pointer[[]models.Recipe]
}

// NewRecipeCatalog creates a catalog backed by source
func NewRecipeCatalog(source CatalogSource, logger *zap.Logger) *RecipeCatalog {
	return &RecipeCatalog{
		source: source,
		logger: logger.Named("catalog"),
	}
}

// Recipes returns every recipe in catalog order. The returned slice is shared
// and must not be modified.
func (c *RecipeCatalog) Recipes(ctx context.Context) ([]models.Recipe, error) {
	if cached := c.recipes.Load(); cached != nil {
		return *cached, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cached := c.recipes.Load(); cached != nil {
		return *cached, nil
	}

	recipes, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	c.recipes.Store(&recipes)

	return recipes, nil
}

// Reload reads the source again and swaps in the new recipes. On failure the
// previously loaded recipes stay in place.
func (c *RecipeCatalog) Reload(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	recipes, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	c.recipes.Store(&recipes)

	return len(recipes), nil
}

func (c *RecipeCatalog) load(ctx context.Context) ([]models.Recipe, error) {
	rc, err := c.source.Open(ctx)
	if err != nil {
		c.logger.Warn("failed to open recipe catalog", zap.Stringer("source", c.source), zap.Error(err))
		return nil, fmt.Errorf("%w: open %s: %v", ErrCatalogLoad, c.source, err)
	}
	defer rc.Close()

	recipes, err := DecodeCatalog(rc)
	if err != nil {
		c.logger.Warn("failed to decode recipe catalog", zap.Stringer("source", c.source), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrCatalogLoad, err)
	}

	c.logger.Info("recipe catalog loaded", zap.Stringer("source", c.source), zap.Int("recipes", len(recipes)))
	return recipes, nil
}

// RecipeByID returns the recipe with the given id
func (c *RecipeCatalog) RecipeByID(ctx context.Context, id string) (*models.Recipe, error) {
	recipes, err := c.Recipes(ctx)
	if err != nil {
		return nil, err
	}
	for i := range recipes {
		if recipes[i].ID == id {
			recipe := recipes[i]
			return &recipe, nil
		}
	}
	return nil, ErrRecipeNotFound
}

// ListRecipes returns recipes filtered by category and tag, both case-insensitive.
// Empty filters match everything.
func (c *RecipeCatalog) ListRecipes(ctx context.Context, params models.RecipeListParams) ([]models.Recipe, error) {
	recipes, err := c.Recipes(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]models.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if params.Category != "" && !strings.EqualFold(string(r.Category), params.Category) {
			continue
		}
		if params.Tag != "" && !r.HasTag(params.Tag) {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, nil
}

// RecipesByCategory returns recipes in the given category, ignoring case
func (c *RecipeCatalog) RecipesByCategory(ctx context.Context, category string) ([]models.Recipe, error) {
	return c.ListRecipes(ctx, models.RecipeListParams{Category: category})
}

// RecipesByTag returns recipes carrying the given tag, ignoring case
func (c *RecipeCatalog) RecipesByTag(ctx context.Context, tag string) ([]models.Recipe, error) {
	return c.ListRecipes(ctx, models.RecipeListParams{Tag: tag})
}

// catalogEntry is the on-disk shape of a recipe. Keys are camelCase.
type catalogEntry struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Ingredients     []string `json:"ingredients"`
	Instructions    []string `json:"instructions"`
	PrepTimeMinutes int      `json:"prepTimeMinutes"`
	Servings        *int     `json:"servings"`
	Difficulty      string   `json:"difficulty"`
	Category        string   `json:"category"`
	Tags            []string `json:"tags"`
	ImageURL        *string  `json:"imageUrl"`
}

// DecodeCatalog parses a JSON array of recipes. Unknown keys are ignored and
// a missing servings count defaults to DefaultServings.
func DecodeCatalog(r io.Reader) ([]models.Recipe, error) {
	var entries []catalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to parse recipes: %w", err)
	}

	recipes := make([]models.Recipe, 0, len(entries))
	for _, e := range entries {
		servings := models.DefaultServings
		if e.Servings != nil {
			servings = *e.Servings
		}
		tags := e.Tags
		if tags == nil {
			tags = []string{}
		}
		recipes = append(recipes, models.Recipe{
			ID:              e.ID,
			Name:            e.Name,
			Description:     e.Description,
			Ingredients:     e.Ingredients,
			Instructions:    e.Instructions,
			PrepTimeMinutes: e.PrepTimeMinutes,
			Servings:        servings,
			Difficulty:      models.Difficulty(e.Difficulty),
			Category:        models.Category(e.Category),
			Tags:            tags,
			ImageURL:        e.ImageURL,
		})
	}
	return recipes, nil
}

// ValidateCatalog checks ids are present and unique and that every recipe has
// ingredients and a known difficulty and category.
func ValidateCatalog(recipes []models.Recipe) error {
	var problems []string
	seen := make(map[string]struct{}, len(recipes))

	for i, r := range recipes {
		label := fmt.Sprintf("recipe %d (%s)", i, r.ID)
		if r.ID == "" {
			problems = append(problems, fmt.Sprintf("recipe %d: missing id", i))
		} else if _, dup := seen[r.ID]; dup {
			problems = append(problems, label+": duplicate id")
		}
		seen[r.ID] = struct{}{}

		if strings.TrimSpace(r.Name) == "" {
			problems = append(problems, label+": missing name")
		}
		if len(r.Ingredients) == 0 {
			problems = append(problems, label+": no ingredients")
		}
		if !r.Difficulty.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown difficulty %q", label, r.Difficulty))
		}
		if !r.Category.Valid() {
			problems = append(problems, fmt.Sprintf("%s: unknown category %q", label, r.Category))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid catalog: %s", strings.Join(problems, "; "))
	}
	return nil
}
