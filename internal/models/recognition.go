package models

// RecognitionResult is the output of a text recognition pass over an image.
// Block and line order is whatever the OCR engine reports.
type RecognitionResult struct {
	Text    string      `json:"text"`
	Blocks  []TextBlock `json:"blocks"`
	Success bool        `json:"success"`
	Error   *string     `json:"error,omitempty"`
}

// TextBlock is a paragraph-like region of recognized text
type TextBlock struct {
	Text  string     `json:"text"`
	Lines []TextLine `json:"lines"`
}

// TextLine is a single recognized line
type TextLine struct {
	Text string `json:"text"`
}

// FailedRecognition builds an unsuccessful result carrying the given message
func FailedRecognition(message string) RecognitionResult {
	return RecognitionResult{
		Success: false,
		Error:   &message,
	}
}
