package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Veri backend
	BaseURL     string
	AccessToken string

	// OCR
	OCRProvider string // "veri" or "gemini"
	GeminiModel string

	// Limits
	MaxImageBytes int64

	// Timeouts
	RequestTimeout time.Duration // enveloped API calls (ticket, ocr, books, cards)
	UploadTimeout  time.Duration // raw binary PUT to storage
	OCRTimeout     time.Duration // image download for the vision provider

	// Styling
	StylePresetsPath string
}

func Load() Config {
	return Config{
		BaseURL:     envStr("VERI_BASE_URL", "https://api.veri.app"),
		AccessToken: envStr("VERI_ACCESS_TOKEN", ""),

		OCRProvider: envStr("VERI_OCR_PROVIDER", "veri"),
		GeminiModel: envStr("GEMINI_MODEL", "gemini-1.5-flash"),

		MaxImageBytes: int64(envInt("MAX_IMAGE_BYTES", 10<<20)),

		RequestTimeout: envDur("REQUEST_TIMEOUT", 15*time.Second),
		UploadTimeout:  envDur("UPLOAD_TIMEOUT", 30*time.Second),
		OCRTimeout:     envDur("OCR_TIMEOUT", 30*time.Second),

		StylePresetsPath: envStr("STYLE_PRESETS_PATH", ""),
	}
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("VERI_BASE_URL must not be empty")
	}
	if c.OCRProvider != "veri" && c.OCRProvider != "gemini" {
		return fmt.Errorf("VERI_OCR_PROVIDER must be 'veri' or 'gemini', got %q", c.OCRProvider)
	}
	return nil
}

func envStr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func envDur(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
