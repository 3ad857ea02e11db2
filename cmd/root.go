package cmd

import (
	"fmt"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
	"github.com/9oormthon-univ-Veri/vericard/internal/books"
	"github.com/9oormthon-univ-Veri/vericard/internal/cards"
	"github.com/9oormthon-univ-Veri/vericard/internal/config"
	"github.com/9oormthon-univ-Veri/vericard/internal/covers"
	"github.com/9oormthon-univ-Veri/vericard/internal/gemini"
	"github.com/9oormthon-univ-Veri/vericard/internal/media"
	"github.com/9oormthon-univ-Veri/vericard/internal/ocr"
	"github.com/9oormthon-univ-Veri/vericard/internal/workflow"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vericard",
		Short: "Reading-card creation pipeline for the Veri backend",
		Long: `Vericard drives the Veri reading-card workflow from the command line:
photograph or select a page image, upload it, extract the text, attach it
to a book in your catalog, style it, and save the finished card.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	// Add subcommands
	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStylesCmd())

	return cmd
}

// loadPalette builds the style palette, merging the user preset file
// when one is configured.
func loadPalette(cfg config.Config) (*cards.Palette, error) {
	palette := cards.DefaultPalette()
	if cfg.StylePresetsPath != "" {
		if err := palette.MergeFile(cfg.StylePresetsPath); err != nil {
			return nil, fmt.Errorf("failed to load style presets: %w", err)
		}
	}
	return palette, nil
}

// newController wires the pipeline services from config.
func newController(cfg config.Config) (*workflow.Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	palette, err := loadPalette(cfg)
	if err != nil {
		return nil, err
	}

	client := api.NewClient(cfg.BaseURL, cfg.AccessToken, cfg.RequestTimeout)
	uploader := media.NewUploader(client, cfg.MaxImageBytes, cfg.UploadTimeout)
	ocrService := ocr.NewService(client, cfg.OCRProvider, gemini.New(), cfg.GeminiModel, cfg.OCRTimeout)
	resolver := books.NewResolver(client, covers.NewFetcher())
	cardService := cards.NewService(client)

	return workflow.NewController(uploader, ocrService, resolver, palette, cardService), nil
}
