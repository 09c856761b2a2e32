package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

var (
	ErrOCRUnavailable     = errors.New("text recognition is not available")
	ErrRecognitionFailed  = errors.New("could not recognize text")
	ErrNoIngredientsFound = errors.New("no ingredients found, try a clearer photo")
)

// TextRecognizer turns image bytes into recognized text
type TextRecognizer interface {
	Recognize(imageBytes []byte) models.RecognitionResult
}

// ScanStore persists scans and their parsed ingredients
type ScanStore interface {
	CreateScan(ctx context.Context, req *models.CreateScanRequest) (*models.Scan, error)
	SaveScanResult(ctx context.Context, scanID, rawText string, ingredients []models.Ingredient) error
	UpdateScanStatus(ctx context.Context, scanID string, status models.ScanStatus, errorMessage *string) error
	GetScanByID(ctx context.Context, scanID string, userID int) (*models.ScanWithIngredients, error)
}

// ImageStore keeps uploaded scan images
type ImageStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
}

// ImageUpload is a grocery list photo submitted by a user
type ImageUpload struct {
	UserID      int
	Filename    string
	ContentType string
	Data        []byte
}

// ScanProcessor runs the OCR -> parse -> persist pipeline
type ScanProcessor struct {
	ocr    TextRecognizer
	parser *IngredientParser
	scans  ScanStore
	images ImageStore
	logger *zap.Logger
	now    func() time.Time
}

// NewScanProcessor creates a scan processor. ocr and images may be nil when
// recognition or object storage is disabled.
func NewScanProcessor(ocr TextRecognizer, parser *IngredientParser, scans ScanStore, images ImageStore, logger *zap.Logger) *ScanProcessor {
	return &ScanProcessor{
		ocr:    ocr,
		parser: parser,
		scans:  scans,
		images: images,
		logger: logger.Named("scans"),
		now:    time.Now,
	}
}

// CanRecognize reports whether image uploads can be processed
func (p *ScanProcessor) CanRecognize() bool {
	return p.ocr != nil
}

// ProcessImage stores the image, recognizes and parses it, and records the scan.
// A scan that yields no text or no ingredients is kept with status failed.
func (p *ScanProcessor) ProcessImage(ctx context.Context, upload ImageUpload) (*models.ScanWithIngredients, error) {
	if p.ocr == nil {
		return nil, ErrOCRUnavailable
	}

	scanID := uuid.NewString()
	log := p.logger.With(zap.String("scan_id", scanID), zap.Int("user_id", upload.UserID))

	var imageKey *string
	if p.images != nil {
		key := ScanImageKey(upload.UserID, scanID, upload.Filename, p.now())
		if _, err := p.images.Upload(ctx, key, upload.Data, upload.ContentType); err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		imageKey = &key
	}

	_, err := p.scans.CreateScan(ctx, &models.CreateScanRequest{
		ID:               scanID,
		UserID:           upload.UserID,
		ImageKey:         imageKey,
		OriginalFilename: optional(upload.Filename),
		ContentType:      optional(upload.ContentType),
		Status:           models.ScanStatusProcessing,
	})
	if err != nil {
		if imageKey != nil {
			if deleteErr := p.images.Delete(ctx, *imageKey); deleteErr != nil {
				log.Warn("failed to clean up image after scan creation failure", zap.String("key", *imageKey), zap.Error(deleteErr))
			}
		}
		return nil, fmt.Errorf("create scan: %w", err)
	}

	result := p.ocr.Recognize(upload.Data)
	if !result.Success {
		reason := ErrRecognitionFailed.Error()
		if result.Error != nil {
			log.Warn("recognition failed", zap.String("error", *result.Error))
		}
		p.markFailed(ctx, log, scanID, reason)
		return nil, ErrRecognitionFailed
	}

	ingredients := p.parser.Parse(result)
	if len(ingredients) == 0 {
		p.markFailed(ctx, log, scanID, ErrNoIngredientsFound.Error())
		return nil, ErrNoIngredientsFound
	}

	if err := p.scans.SaveScanResult(ctx, scanID, result.Text, ingredients); err != nil {
		p.markFailed(ctx, log, scanID, saveFailedReason)
		return nil, fmt.Errorf("save scan result: %w", err)
	}
	log.Info("scan processed", zap.Int("ingredients", len(ingredients)))

	return p.scans.GetScanByID(ctx, scanID, upload.UserID)
}

// CreateManualScan records a scan from typed text or an explicit ingredient list.
// Explicit ingredients take precedence and carry manual confidence.
func (p *ScanProcessor) CreateManualScan(ctx context.Context, userID int, req models.ManualScanRequest) (*models.ScanWithIngredients, error) {
	var ingredients []models.Ingredient
	rawText := req.RawText
	if len(req.Ingredients) > 0 {
		ingredients = ManualIngredients(req.Ingredients)
		if rawText == "" {
			rawText = strings.Join(models.IngredientNames(ingredients), "\n")
		}
	} else {
		ingredients = p.parser.ParseText(req.RawText)
	}
	if len(ingredients) == 0 {
		return nil, ErrNoIngredientsFound
	}

	scanID := uuid.NewString()
	_, err := p.scans.CreateScan(ctx, &models.CreateScanRequest{
		ID:     scanID,
		UserID: userID,
		Status: models.ScanStatusProcessing,
	})
	if err != nil {
		return nil, fmt.Errorf("create scan: %w", err)
	}
	if err := p.scans.SaveScanResult(ctx, scanID, rawText, ingredients); err != nil {
		p.markFailed(ctx, p.logger.With(zap.String("scan_id", scanID), zap.Int("user_id", userID)), scanID, saveFailedReason)
		return nil, fmt.Errorf("save scan result: %w", err)
	}

	return p.scans.GetScanByID(ctx, scanID, userID)
}

const saveFailedReason = "could not save scan result"

func (p *ScanProcessor) markFailed(ctx context.Context, log *zap.Logger, scanID, reason string) {
	if err := p.scans.UpdateScanStatus(ctx, scanID, models.ScanStatusFailed, &reason); err != nil {
		log.Warn("failed to mark scan failed", zap.Error(err))
	}
}

// ManualIngredients converts client input to ingredients, dropping entries
// whose trimmed name is shorter than the parser's minimum
func ManualIngredients(inputs []models.IngredientInput) []models.Ingredient {
	ingredients := make([]models.Ingredient, 0, len(inputs))
	for _, in := range inputs {
		in.Name = strings.TrimSpace(in.Name)
		if utf8.RuneCountInString(in.Name) < minNameLen {
			continue
		}
		ingredients = append(ingredients, in.ToIngredient())
	}
	return ingredients
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
