package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/config"
	"github.com/foxxcyber/pantry-chef/internal/models"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

// UserStore is the user persistence the auth handlers need
type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, displayName *string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int) error
}

// ScanRepository is the scan persistence the scan handlers need
type ScanRepository interface {
	GetScanByID(ctx context.Context, scanID string, userID int) (*models.ScanWithIngredients, error)
	ListScans(ctx context.Context, params models.ScanListParams) ([]models.Scan, int, error)
	CountScans(ctx context.Context, userID int) (int, error)
	UpdateScanIngredients(ctx context.Context, scanID string, userID int, ingredients []models.Ingredient) error
	DeleteScan(ctx context.Context, scanID string, userID int) (*string, error)
	DeleteAllScans(ctx context.Context, userID int) ([]string, error)
}

// ImageLinker presigns and removes stored scan images
type ImageLinker interface {
	GetPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	DeleteMultiple(ctx context.Context, keys []string) error
}

// Deps lists the collaborators of the HTTP layer. Images and Generator may be nil.
type Deps struct {
	Config    *config.Config
	Logger    *zap.Logger
	Users     UserStore
	Scans     ScanRepository
	Images    ImageLinker
	Parser    *services.IngredientParser
	Catalog   *services.RecipeCatalog
	Matcher   *services.RecipeMatcher
	Processor *services.ScanProcessor
	Generator *services.RecipeGenerator
}

// Handler holds all handler dependencies
type Handler struct {
	cfg       *config.Config
	logger    *zap.Logger
	users     UserStore
	scans     ScanRepository
	images    ImageLinker
	parser    *services.IngredientParser
	catalog   *services.RecipeCatalog
	matcher   *services.RecipeMatcher
	processor *services.ScanProcessor
	generator *services.RecipeGenerator
}

// New creates a new Handler instance
func New(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		cfg:       deps.Config,
		logger:    logger.Named("http"),
		users:     deps.Users,
		scans:     deps.Scans,
		images:    deps.Images,
		parser:    deps.Parser,
		catalog:   deps.Catalog,
		matcher:   deps.Matcher,
		processor: deps.Processor,
		generator: deps.Generator,
	}
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	}

	return Error(c, code, message)
}

// APIResponse is a standard API response structure
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta contains pagination metadata
type Meta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Success returns a successful response
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// Created returns a successful response with status 201
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(APIResponse{
		Success: true,
		Data:    data,
	})
}

// SuccessWithMeta returns a successful response with pagination
func SuccessWithMeta(c *fiber.Ctx, data interface{}, total, limit, offset int) error {
	return c.JSON(APIResponse{
		Success: true,
		Data:    data,
		Meta: &Meta{
			Total:  total,
			Limit:  limit,
			Offset: offset,
		},
	})
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// Health reports liveness and which optional features are wired
func (h *Handler) Health(c *fiber.Ctx) error {
	return Success(c, fiber.Map{
		"status":     "ok",
		"ocr":        h.processor != nil && h.processor.CanRecognize(),
		"storage":    h.images != nil,
		"generation": h.generator.Enabled(),
	})
}
