package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/database"
	"github.com/foxxcyber/pantry-chef/internal/middleware"
	"github.com/foxxcyber/pantry-chef/internal/models"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

// GenerateRecipes asks the language model for recipes. Ingredients come from
// the body or, when scan_id is given without ingredients, from that scan.
func (h *Handler) GenerateRecipes(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	if !h.generator.Enabled() {
		return Error(c, fiber.StatusServiceUnavailable, services.ErrGeneratorDisabled.Error())
	}

	var req models.GenerateRecipesRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	names := req.Ingredients
	if len(names) == 0 && req.ScanID != nil {
		scan, err := h.scans.GetScanByID(c.Context(), *req.ScanID, userID)
		if err != nil {
			if errors.Is(err, database.ErrScanNotFound) {
				return Error(c, fiber.StatusNotFound, "scan not found")
			}
			return Error(c, fiber.StatusInternalServerError, "failed to get scan")
		}
		names = models.IngredientNames(scan.Ingredients)
	}

	resp, err := h.generator.Generate(c.Context(), names)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoIngredients):
			return Error(c, fiber.StatusBadRequest, services.ErrNoIngredients.Error())
		case errors.Is(err, services.ErrGeneratorDisabled):
			return Error(c, fiber.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Warn("recipe generation failed", zap.Error(err))
			return Error(c, fiber.StatusBadGateway, "recipe generation failed")
		}
	}

	return Success(c, resp)
}
