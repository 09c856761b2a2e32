package models

import (
	"time"
)

// ScanStatus represents the processing status of a scan
type ScanStatus string

const (
	ScanStatusPending    ScanStatus = "pending"
	ScanStatusProcessing ScanStatus = "processing"
	ScanStatusCompleted  ScanStatus = "completed"
	ScanStatusFailed     ScanStatus = "failed"
)

// Scan is one processed grocery list, either photographed or typed in
type Scan struct {
	ID               string     `json:"id"`
	UserID           int        `json:"user_id"`
	RawText          string     `json:"raw_text"`
	ImageKey         *string    `json:"-"`
	OriginalFilename *string    `json:"original_filename,omitempty"`
	ContentType      *string    `json:"content_type,omitempty"`
	Status           ScanStatus `json:"status"`
	ErrorMessage     *string    `json:"error_message,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ScanWithIngredients includes the parsed ingredient list in position order
type ScanWithIngredients struct {
	Scan
	Ingredients []Ingredient `json:"ingredients"`
	ImageURL    *string      `json:"image_url,omitempty"`
}

// HasImage reports whether an uploaded image is stored for the scan
func (s *Scan) HasImage() bool {
	return s.ImageKey != nil && *s.ImageKey != ""
}

// CreateScanRequest is used internally to create a scan record
type CreateScanRequest struct {
	ID               string
	UserID           int
	RawText          string
	ImageKey         *string
	OriginalFilename *string
	ContentType      *string
	Status           ScanStatus
}

// ManualScanRequest is the body for creating a scan without an image.
// Either RawText is parsed, or Ingredients are stored as given.
type ManualScanRequest struct {
	RawText     string            `json:"raw_text"`
	Ingredients []IngredientInput `json:"ingredients"`
}

// UpdateIngredientsRequest replaces the ingredient list of a scan
type UpdateIngredientsRequest struct {
	Ingredients []IngredientInput `json:"ingredients"`
}

// ParseRequest is the body of a raw-text parse request
type ParseRequest struct {
	Text   string             `json:"text"`
	Result *RecognitionResult `json:"result,omitempty"`
}

// ScanListParams holds pagination options for listing scans
type ScanListParams struct {
	UserID int
	Status *ScanStatus
	Limit  int
	Offset int
}
