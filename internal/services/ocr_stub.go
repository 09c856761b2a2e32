//go:build windows || notesseract

package services

import (
	"errors"

	"go.uber.org/zap"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

// OCRService handles optical character recognition (stub without Tesseract)
type OCRService struct{}

// NewOCRService creates a new OCR service (not available in this build)
func NewOCRService(language string, logger *zap.Logger) (*OCRService, error) {
	return nil, errors.New("OCR service is not available in this build - run in the Docker image with Tesseract installed")
}

// Recognize always reports failure
func (s *OCRService) Recognize(imageBytes []byte) models.RecognitionResult {
	return models.FailedRecognition("OCR service is not available in this build")
}

// Close releases OCR resources
func (s *OCRService) Close() error {
	return nil
}
