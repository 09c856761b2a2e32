package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/config"
	"github.com/foxxcyber/pantry-chef/internal/database"
	"github.com/foxxcyber/pantry-chef/internal/handlers"
	"github.com/foxxcyber/pantry-chef/internal/logger"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "pantry-chef")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, logg)
	if err != nil {
		logg.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		logg.Fatal("failed to run migrations", zap.Error(err))
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(ctx, db, cfg); err != nil {
		logg.Warn("could not ensure admin user", zap.Error(err))
	}

	// Object storage for scan images and, optionally, the recipe catalog
	var storage *services.StorageService
	if cfg.S3Enabled {
		storage, err = services.NewStorageService(cfg, logg)
		if err != nil {
			logg.Fatal("failed to initialize storage", zap.Error(err))
		}
		if err := storage.EnsureBucket(ctx); err != nil {
			logg.Warn("failed to ensure bucket exists", zap.String("bucket", storage.BucketName()), zap.Error(err))
		}
	} else {
		logg.Info("scan image storage is disabled")
	}

	// Text recognition is optional; uploads answer 503 without it
	var recognizer services.TextRecognizer
	ocr, err := services.NewOCRService(cfg.OCRLanguage, logg)
	if err != nil {
		logg.Warn("text recognition unavailable", zap.Error(err))
	} else {
		defer ocr.Close()
		recognizer = ocr
	}

	catalog := services.NewRecipeCatalog(catalogSource(cfg, storage), logg)
	if n, err := catalog.Reload(ctx); err != nil {
		logg.Warn("recipe catalog failed to load, will retry on first request", zap.Error(err))
	} else {
		logg.Info("recipe catalog loaded", zap.Int("recipes", n))
	}

	var cache services.RecipeCache
	if cfg.RedisAddr != "" {
		redisCache, err := services.NewRedisRecipeCache(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.AICacheTTL)
		if err != nil {
			logg.Warn("recipe cache unavailable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			defer redisCache.Close()
			cache = redisCache
		}
	}

	parser := services.NewIngredientParser()
	deps := handlers.Deps{
		Config:    cfg,
		Logger:    logg,
		Users:     db,
		Scans:     db,
		Parser:    parser,
		Catalog:   catalog,
		Matcher:   services.NewRecipeMatcher(catalog),
		Generator: services.NewRecipeGenerator(cfg, cache, logg),
	}

	// Nil pointers must not leak into the interface fields
	var images services.ImageStore
	if storage != nil {
		images = storage
		deps.Images = storage
	}
	deps.Processor = services.NewScanProcessor(recognizer, parser, db, images, logg)

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.MaxUploadBytes + 1024*1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	handlers.New(deps).RegisterRoutes(app)

	go func() {
		<-ctx.Done()
		logg.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			logg.Error("shutdown failed", zap.Error(err))
		}
	}()

	logg.Info("server starting",
		zap.String("port", cfg.Port),
		zap.Bool("ocr", recognizer != nil),
		zap.Bool("storage", storage != nil),
		zap.Bool("generation", cfg.LLMEnabled),
	)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logg.Fatal("server stopped", zap.Error(err))
	}
}

// catalogSource picks where recipes are read from: an object in the bucket,
// a local file, or the copy compiled into the binary.
func catalogSource(cfg *config.Config, storage *services.StorageService) services.CatalogSource {
	switch {
	case cfg.CatalogObjectKey != "" && storage != nil:
		return services.ObjectCatalog{Storage: storage, Key: cfg.CatalogObjectKey}
	case cfg.CatalogPath != "":
		return services.FileCatalog{Path: cfg.CatalogPath}
	default:
		return services.EmbeddedCatalog{}
	}
}
