package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/config"
	"github.com/foxxcyber/pantry-chef/internal/logger"
	"github.com/foxxcyber/pantry-chef/internal/models"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

const defaultCatalogKey = "catalog/recipes.json"

func main() {
	// Command line flags
	localFile := flag.String("file", "", "Read the catalog from a local JSON file")
	sourceURL := flag.String("url", "", "Download the catalog from this URL")
	key := flag.String("key", "", "Object key to publish to (default CATALOG_OBJECT_KEY or "+defaultCatalogKey+")")
	dryRun := flag.Bool("dry-run", false, "Validate and preview without uploading")
	flag.Parse()

	// Load .env
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logg, err := logger.New(cfg.LogLevel, cfg.LogFormat, "catalog")
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logg.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	data, source, err := readCatalog(ctx, *localFile, *sourceURL)
	if err != nil {
		logg.Fatal("failed to read catalog", zap.Error(err))
	}
	logg.Info("catalog read", zap.String("source", source), zap.Int("bytes", len(data)))

	recipes, err := services.DecodeCatalog(bytes.NewReader(data))
	if err != nil {
		logg.Fatal("failed to decode catalog", zap.Error(err))
	}
	if err := services.ValidateCatalog(recipes); err != nil {
		logg.Fatal("catalog is invalid", zap.Error(err))
	}

	printPreview(os.Stdout, recipes)

	if *dryRun {
		logg.Info("dry run, nothing uploaded", zap.Int("recipes", len(recipes)))
		return
	}

	if !cfg.S3Enabled {
		logg.Fatal("S3_ENABLED must be set to publish the catalog")
	}

	objectKey := *key
	if objectKey == "" {
		objectKey = cfg.CatalogObjectKey
	}
	if objectKey == "" {
		objectKey = defaultCatalogKey
	}

	storage, err := services.NewStorageService(cfg, logg)
	if err != nil {
		logg.Fatal("failed to initialize storage", zap.Error(err))
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		logg.Fatal("failed to ensure bucket", zap.Error(err))
	}

	result, err := storage.Upload(ctx, objectKey, data, "application/json")
	if err != nil {
		logg.Fatal("failed to upload catalog", zap.Error(err))
	}

	logg.Info("catalog published",
		zap.String("bucket", storage.BucketName()),
		zap.String("key", result.Key),
		zap.Int("recipes", len(recipes)),
	)
}

// readCatalog returns the raw catalog bytes and a description of where they came from.
// With neither a file nor a URL the embedded catalog is used.
func readCatalog(ctx context.Context, path, url string) ([]byte, string, error) {
	switch {
	case path != "":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", path, err)
		}
		return data, "file:" + path, nil

	case url != "":
		resp, err := resty.New().
			SetTimeout(time.Minute).
			R().
			SetContext(ctx).
			Get(url)
		if err != nil {
			return nil, "", fmt.Errorf("download %s: %w", url, err)
		}
		if resp.IsError() {
			return nil, "", fmt.Errorf("download %s: HTTP %d", url, resp.StatusCode())
		}
		return resp.Body(), url, nil

	default:
		src := services.EmbeddedCatalog{}
		rc, err := src.Open(ctx)
		if err != nil {
			return nil, "", err
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		return data, src.String(), err
	}
}

// printPreview writes a per-category summary of the catalog
func printPreview(w io.Writer, recipes []models.Recipe) {
	byCategory := make(map[models.Category][]string)
	for _, r := range recipes {
		byCategory[r.Category] = append(byCategory[r.Category], r.ID)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, string(c))
	}
	sort.Strings(categories)

	fmt.Fprintf(w, "%d recipes in %d categories\n", len(recipes), len(categories))
	for _, c := range categories {
		ids := byCategory[models.Category(c)]
		fmt.Fprintf(w, "  %-10s %2d  %s\n", c, len(ids), strings.Join(ids, ", "))
	}
}
