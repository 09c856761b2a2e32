package handlers

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/database"
	"github.com/foxxcyber/pantry-chef/internal/middleware"
	"github.com/foxxcyber/pantry-chef/internal/models"
	"github.com/foxxcyber/pantry-chef/internal/services"
)

const imageURLExpiry = time.Hour

// UploadScan handles a grocery list photo: store, recognize, parse and record it
func (h *Handler) UploadScan(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	file, err := c.FormFile("image")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "image file is required")
	}

	contentType := file.Header.Get("Content-Type")
	if !isValidImageType(contentType) {
		return Error(c, fiber.StatusBadRequest, "invalid image type. Supported: JPEG, PNG, WebP, TIFF, BMP")
	}
	if file.Size > int64(h.cfg.MaxUploadBytes) {
		return Error(c, fiber.StatusBadRequest, fmt.Sprintf("file too large. Maximum size is %d bytes", h.cfg.MaxUploadBytes))
	}
	if !h.processor.CanRecognize() {
		return Error(c, fiber.StatusServiceUnavailable, "text recognition is not available")
	}

	src, err := file.Open()
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to read file")
	}

	scan, err := h.processor.ProcessImage(c.Context(), services.ImageUpload{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: contentType,
		Data:        imageBytes,
	})
	if err != nil {
		return h.scanProcessingError(c, err)
	}

	h.attachImageURL(c, scan)
	return Created(c, scan)
}

// CreateScan records a scan from typed text or an ingredient list
func (h *Handler) CreateScan(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.ManualScanRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.RawText) == "" && len(req.Ingredients) == 0 {
		return Error(c, fiber.StatusBadRequest, "raw_text or ingredients is required")
	}

	scan, err := h.processor.CreateManualScan(c.Context(), userID, req)
	if err != nil {
		return h.scanProcessingError(c, err)
	}

	return Created(c, scan)
}

// ListScans returns the user's scans, newest first
func (h *Handler) ListScans(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	params := models.ScanListParams{
		UserID: userID,
		Limit:  c.QueryInt("limit", 20),
		Offset: c.QueryInt("offset", 0),
	}
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 20
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	if s := c.Query("status"); s != "" {
		status := models.ScanStatus(s)
		switch status {
		case models.ScanStatusPending, models.ScanStatusProcessing, models.ScanStatusCompleted, models.ScanStatusFailed:
			params.Status = &status
		default:
			return Error(c, fiber.StatusBadRequest, "invalid status filter")
		}
	}

	scans, total, err := h.scans.ListScans(c.Context(), params)
	if err != nil {
		h.logger.Error("failed to list scans", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list scans")
	}

	return SuccessWithMeta(c, scans, total, params.Limit, params.Offset)
}

// CountScans returns how many scans the user has
func (h *Handler) CountScans(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	count, err := h.scans.CountScans(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to count scans")
	}

	return Success(c, fiber.Map{"count": count})
}

// GetScan returns a scan with its ingredients
func (h *Handler) GetScan(c *fiber.Ctx) error {
	scan, err := h.loadScan(c)
	if err != nil {
		return err
	}

	h.attachImageURL(c, scan)
	return Success(c, scan)
}

// UpdateScanIngredients replaces the ingredients of a scan with user corrections
func (h *Handler) UpdateScanIngredients(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req models.UpdateIngredientsRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	ingredients := services.ManualIngredients(req.Ingredients)
	if len(ingredients) == 0 {
		return Error(c, fiber.StatusBadRequest, "at least one ingredient is required")
	}

	scanID := c.Params("id")
	if err := h.scans.UpdateScanIngredients(c.Context(), scanID, userID, ingredients); err != nil {
		if errors.Is(err, database.ErrScanNotFound) {
			return Error(c, fiber.StatusNotFound, "scan not found")
		}
		h.logger.Error("failed to update scan ingredients", zap.String("scan_id", scanID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to update ingredients")
	}

	return h.GetScan(c)
}

// GetScanMatches ranks catalog recipes against a stored scan
func (h *Handler) GetScanMatches(c *fiber.Ctx) error {
	scan, err := h.loadScan(c)
	if err != nil {
		return err
	}

	return h.respondWithMatches(c, scan.Ingredients)
}

// GetScanImage returns a temporary link to the scan's uploaded image
func (h *Handler) GetScanImage(c *fiber.Ctx) error {
	scan, err := h.loadScan(c)
	if err != nil {
		return err
	}
	if h.images == nil || !scan.HasImage() {
		return Error(c, fiber.StatusNotFound, "scan has no image")
	}

	url, err := h.images.GetPresignedURL(c.Context(), *scan.ImageKey, imageURLExpiry)
	if err != nil {
		h.logger.Error("failed to presign image", zap.String("scan_id", scan.ID), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to get image url")
	}

	return Success(c, fiber.Map{
		"url":        url,
		"expires_in": int(imageURLExpiry.Seconds()),
	})
}

// DeleteScan deletes a scan and its stored image
func (h *Handler) DeleteScan(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	scanID := c.Params("id")
	imageKey, err := h.scans.DeleteScan(c.Context(), scanID, userID)
	if err != nil {
		if errors.Is(err, database.ErrScanNotFound) {
			return Error(c, fiber.StatusNotFound, "scan not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete scan")
	}

	if imageKey != nil && h.images != nil {
		if err := h.images.Delete(c.Context(), *imageKey); err != nil {
			h.logger.Warn("failed to delete scan image", zap.String("key", *imageKey), zap.Error(err))
		}
	}

	return Success(c, fiber.Map{"deleted": scanID})
}

// DeleteAllScans clears the user's scan history
func (h *Handler) DeleteAllScans(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	keys, err := h.scans.DeleteAllScans(c.Context(), userID)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to delete scans")
	}

	if len(keys) > 0 && h.images != nil {
		if err := h.images.DeleteMultiple(c.Context(), keys); err != nil {
			h.logger.Warn("failed to delete scan images", zap.Int("count", len(keys)), zap.Error(err))
		}
	}

	return Success(c, fiber.Map{"images_removed": len(keys)})
}

// loadScan fetches the scan named in the path for the current user. Failures
// are returned as *fiber.Error for ErrorHandler to render.
func (h *Handler) loadScan(c *fiber.Ctx) (*models.ScanWithIngredients, error) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "unauthorized")
	}

	scan, err := h.scans.GetScanByID(c.Context(), c.Params("id"), userID)
	if err != nil {
		if errors.Is(err, database.ErrScanNotFound) {
			return nil, fiber.NewError(fiber.StatusNotFound, "scan not found")
		}
		h.logger.Error("failed to get scan", zap.String("scan_id", c.Params("id")), zap.Error(err))
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to get scan")
	}
	return scan, nil
}

func (h *Handler) attachImageURL(c *fiber.Ctx, scan *models.ScanWithIngredients) {
	if h.images == nil || !scan.HasImage() {
		return
	}
	url, err := h.images.GetPresignedURL(c.Context(), *scan.ImageKey, imageURLExpiry)
	if err != nil {
		h.logger.Warn("failed to presign image", zap.String("scan_id", scan.ID), zap.Error(err))
		return
	}
	scan.ImageURL = &url
}

func (h *Handler) scanProcessingError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrRecognitionFailed):
		return Error(c, fiber.StatusUnprocessableEntity, services.ErrRecognitionFailed.Error())
	case errors.Is(err, services.ErrNoIngredientsFound):
		return Error(c, fiber.StatusUnprocessableEntity, services.ErrNoIngredientsFound.Error())
	case errors.Is(err, services.ErrOCRUnavailable):
		return Error(c, fiber.StatusServiceUnavailable, services.ErrOCRUnavailable.Error())
	default:
		h.logger.Error("scan processing failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to process scan")
	}
}

func isValidImageType(contentType string) bool {
	switch strings.ToLower(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/webp", "image/tiff", "image/bmp":
		return true
	}
	return false
}
