package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/middleware"
	"github.com/foxxcyber/pantry-chef/internal/models"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

// ParseIngredients parses raw text or a recognition result into ingredients
func (h *Handler) ParseIngredients(c *fiber.Ctx) error {
	var req models.ParseRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var ingredients []models.Ingredient
	switch {
	case req.Result != nil:
		ingredients = h.parser.Parse(*req.Result)
	case strings.TrimSpace(req.Text) != "":
		ingredients = h.parser.ParseText(req.Text)
	default:
		return Error(c, fiber.StatusBadRequest, "text or result is required")
	}

	h.logger.Debug("parsed ingredients",
		zap.Int("user_id", middleware.GetUserID(c)),
		zap.Int("count", len(ingredients)),
	)
	return Success(c, ingredients)
}

// MatchRecipes ranks catalog recipes against the posted ingredients
func (h *Handler) MatchRecipes(c *fiber.Ctx) error {
	var req models.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	return h.respondWithMatches(c, services.ManualIngredients(req.Ingredients))
}

func (h *Handler) respondWithMatches(c *fiber.Ctx, ingredients []models.Ingredient) error {
	matches, err := h.matcher.MatchRecipes(c.Context(), ingredients)
	if err != nil {
		return h.catalogError(c, err)
	}
	return Success(c, matches)
}

// QuickSuggestions returns dish ideas for the posted ingredients without the catalog
func (h *Handler) QuickSuggestions(c *fiber.Ctx) error {
	var req models.MatchRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	suggestions := services.QuickSuggestions(services.ManualIngredients(req.Ingredients))
	return Success(c, models.SuggestionsResponse{Suggestions: suggestions})
}

// ListRecipes returns catalog recipes, optionally filtered by category and tag
func (h *Handler) ListRecipes(c *fiber.Ctx) error {
	params := models.RecipeListParams{
		Category: strings.TrimSpace(c.Query("category")),
		Tag:      strings.TrimSpace(c.Query("tag")),
	}

	recipes, err := h.catalog.ListRecipes(c.Context(), params)
	if err != nil {
		return h.catalogError(c, err)
	}

	return Success(c, recipes)
}

// GetRecipe returns a single catalog recipe
func (h *Handler) GetRecipe(c *fiber.Ctx) error {
	recipe, err := h.catalog.RecipeByID(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, services.ErrRecipeNotFound) {
			return Error(c, fiber.StatusNotFound, "recipe not found")
		}
		return h.catalogError(c, err)
	}

	return Success(c, recipe)
}

// ReloadCatalog re-reads the recipe catalog from its source
func (h *Handler) ReloadCatalog(c *fiber.Ctx) error {
	n, err := h.catalog.Reload(c.Context())
	if err != nil {
		return h.catalogError(c, err)
	}

	h.logger.Info("recipe catalog reloaded", zap.Int("recipes", n))
	return Success(c, fiber.Map{"recipes": n})
}

func (h *Handler) catalogError(c *fiber.Ctx, err error) error {
	if errors.Is(err, services.ErrCatalogLoad) {
		h.logger.Error("recipe catalog unavailable", zap.Error(err))
		return Error(c, fiber.StatusServiceUnavailable, "recipe catalog unavailable")
	}
	h.logger.Error("recipe lookup failed", zap.Error(err))
	return Error(c, fiber.StatusInternalServerError, "failed to load recipes")
}
