//go:build !windows && !notesseract

package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/foxxcyber/pantry-chef/internal/models"
)

// OCRService handles optical character recognition with Tesseract.
// The underlying client is not safe for concurrent use, so calls are serialized.
type OCRService struct {
	mu     sync.Mutex
	client *gosseract.Client
	logger *zap.Logger
}

// NewOCRService creates a new OCR service for the given Tesseract languages ("eng", "eng+deu")
func NewOCRService(language string, logger *zap.Logger) (*OCRService, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(strings.Split(language, "+")...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}

	// Lists are laid out in columns and blocks, so let Tesseract find them
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &OCRService{
		client: client,
		logger: logger.Named("ocr"),
	}, nil
}

// Recognize extracts text blocks and lines from an encoded image (JPEG, PNG, WebP).
// Engine failures are reported in the result rather than as an error.
func (s *OCRService) Recognize(imageBytes []byte) models.RecognitionResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.client.SetImageFromBytes(imageBytes); err != nil {
		s.logger.Warn("failed to load image", zap.Error(err))
		return models.FailedRecognition(fmt.Sprintf("failed to load image: %v", err))
	}

	text, err := s.client.Text()
	if err != nil {
		s.logger.Warn("text extraction failed", zap.Error(err))
		return models.FailedRecognition(fmt.Sprintf("failed to extract text: %v", err))
	}

	boxes, err := s.client.GetBoundingBoxesVerbose()
	if err != nil {
		// The parser falls back to the plain text when there are no blocks
		s.logger.Debug("layout analysis unavailable", zap.Error(err))
		boxes = nil
	}

	result := models.RecognitionResult{
		Text:    norm.NFKC.String(text),
		Blocks:  groupWords(boxes),
		Success: true,
	}
	s.logger.Debug("image recognized", zap.Int("blocks", len(result.Blocks)), zap.Int("chars", len(result.Text)))

	return result
}

// Close releases OCR resources
func (s *OCRService) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// groupWords assembles word boxes into paragraph blocks and lines, preserving
// Tesseract's reading order.
func groupWords(boxes []gosseract.BoundingBox) []models.TextBlock {
	type blockKey struct{ block, par int }

	var blocks []models.TextBlock
	var words []string
	curBlock := blockKey{-1, -1}
	curLine := -1

	flushLine := func() {
		if len(words) == 0 {
			return
		}
		line := norm.NFKC.String(strings.Join(words, " "))
		b := &blocks[len(blocks)-1]
		b.Lines = append(b.Lines, models.TextLine{Text: line})
		if b.Text == "" {
			b.Text = line
		} else {
			b.Text += "\n" + line
		}
		words = words[:0]
	}

	for _, box := range boxes {
		word := strings.TrimSpace(box.Word)
		if word == "" {
			continue
		}

		key := blockKey{box.BlockNum, box.ParNum}
		if key != curBlock {
			flushLine()
			blocks = append(blocks, models.TextBlock{})
			curBlock = key
			curLine = box.LineNum
		} else if box.LineNum != curLine {
			flushLine()
			curLine = box.LineNum
		}
		words = append(words, word)
	}
	flushLine()

	return blocks
}
