package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/foxxcyber/pantry-chef/internal/middleware"
)

// RegisterRoutes mounts every endpoint on app
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Get("/health", h.Health)

	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Get("/me", middleware.AuthRequired(h.cfg), h.GetCurrentUser)

	// Parsing and matching (public, token optional)
	api.Post("/parse", middleware.AuthOptional(h.cfg), h.ParseIngredients)
	api.Post("/match", middleware.AuthOptional(h.cfg), h.MatchRecipes)

	// Recipe catalog (public), generation (auth)
	recipes := api.Group("/recipes")
	recipes.Get("/", h.ListRecipes)
	recipes.Post("/suggestions", h.QuickSuggestions)
	recipes.Post("/generate", middleware.AuthRequired(h.cfg), h.GenerateRecipes)
	recipes.Get("/:id", h.GetRecipe)

	// Scan history (auth)
	scans := api.Group("/scans", middleware.AuthRequired(h.cfg))
	scans.Post("/upload", h.UploadScan)
	scans.Post("/", h.CreateScan)
	scans.Get("/", h.ListScans)
	scans.Get("/count", h.CountScans)
	scans.Delete("/", h.DeleteAllScans)
	scans.Get("/:id", h.GetScan)
	scans.Put("/:id/ingredients", h.UpdateScanIngredients)
	scans.Get("/:id/matches", h.GetScanMatches)
	scans.Get("/:id/image", h.GetScanImage)
	scans.Delete("/:id", h.DeleteScan)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthRequired(h.cfg), middleware.AdminRequired())
	admin.Post("/catalog/reload", h.ReloadCatalog)
}
