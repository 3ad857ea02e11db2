package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
	"github.com/9oormthon-univ-Veri/vericard/internal/providers"
)

// ErrEmptyText means OCR completed but recognized no usable text. A card
// with no text is not permitted downstream, so this aborts the attempt.
var ErrEmptyText = errors.New("no text recognized in image")

// Service extracts text from an uploaded page image. The default
// provider is the Veri backend OCR endpoint; "gemini" calls a vision
// model directly instead.
type Service struct {
	client     *api.Client
	httpClient *http.Client
	provider   string
	vision     providers.Provider
	model      string
}

// NewService creates a new OCR service. The timeout bounds the image
// download performed for the vision provider; enveloped calls carry the
// client's own timeout.
func NewService(client *api.Client, provider string, vision providers.Provider, model string, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Service{
		client: client,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		provider: provider,
		vision:   vision,
		model:    model,
	}
}

// ExtractText extracts the text visible at the given public image URL.
// Empty or whitespace-only output is a business failure (ErrEmptyText),
// distinct from transport failure; there is no automatic retry.
func (s *Service) ExtractText(ctx context.Context, imageURL string) (string, error) {
	var (
		text string
		err  error
	)

	switch s.provider {
	case "", "veri":
		text, err = s.extractWithVeri(ctx, imageURL)
	case "gemini":
		text, err = s.extractWithGemini(ctx, imageURL)
	default:
		return "", fmt.Errorf("unsupported OCR provider: %s", s.provider)
	}
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}

	slog.Info("Extracted OCR text", "provider", s.provider, "length", len(text))
	return text, nil
}

func (s *Service) extractWithVeri(ctx context.Context, imageURL string) (string, error) {
	query := url.Values{}
	query.Set("imageUrl", imageURL)

	var raw json.RawMessage
	if err := s.client.Get(ctx, "/api/v1/ocr", query, &raw); err != nil {
		return "", fmt.Errorf("failed to call OCR endpoint: %w", err)
	}

	return normalizeResult(raw)
}

// normalizeResult flattens the two OCR result shapes the backend has
// shipped (a bare JSON string, or {"extractedString": ...}) into one
// string at the service boundary so no later stage branches on shape.
func normalizeResult(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}

	var nested struct {
		ExtractedString string `json:"extractedString"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.ExtractedString, nil
	}

	return "", fmt.Errorf("unrecognized OCR result shape: %s", truncate(string(raw), 200))
}

func (s *Service) extractWithGemini(ctx context.Context, imageURL string) (string, error) {
	if s.vision == nil {
		return "", fmt.Errorf("gemini provider not configured")
	}

	imageData, mimeType, err := s.downloadImage(ctx, imageURL)
	if err != nil {
		return "", err
	}

	return s.vision.ExtractText(ctx, providers.Config{
		Model:       s.model,
		Temperature: 0.0, // exact transcription, not interpretation
		Prompt:      buildOCRPrompt(),
		ImageData:   imageData,
		MimeType:    mimeType,
	})
}

func (s *Service) downloadImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image for OCR: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, 20<<20))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = http.DetectContentType(imageData)
	}

	return imageData, mimeType, nil
}

func buildOCRPrompt() string {
	return `You are performing OCR (Optical Character Recognition) on a photograph of a book page.

Your task is to extract ALL visible text from the image exactly as it appears, preserving:
- Line breaks and formatting
- Capitalization
- Punctuation
- Special characters
- Order of text elements

INSTRUCTIONS:
1. Read the image carefully from top to bottom
2. Transcribe every piece of visible text
3. Preserve the original line breaks
4. Do not add any interpretation, commentary, or explanations
5. If text is partially obscured or unclear, transcribe what you can see and use [?] for illegible portions

OUTPUT FORMAT:
Provide ONLY the extracted text. Do not include phrases like "Here is the text:" or "The image contains:".
Start immediately with the transcribed text from the page.`
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
