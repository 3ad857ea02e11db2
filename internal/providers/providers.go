package providers

import (
	"context"
)

// Config represents one vision extraction request.
type Config struct {
	Model       string
	Temperature float64
	Prompt      string
	ImageData   []byte
	MimeType    string
}

// Provider defines the interface for a vision-capable LLM provider used
// for direct text extraction when the backend OCR endpoint is bypassed.
type Provider interface {
	ExtractText(ctx context.Context, config Config) (string, error)
}
