package cmd

import (
	"fmt"
	"net/http"
	"os"

	"github.com/9oormthon-univ-Veri/vericard/internal/books"
	"github.com/9oormthon-univ-Veri/vericard/internal/config"
	"github.com/spf13/cobra"
)

func newCreateCmd() *cobra.Command {
	var (
		imagePath  string
		textFile   string
		bookID     int64
		title      string
		author     string
		publisher  string
		isbn       string
		background string
		font       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a reading card from a page image in one run",
		Long: `Runs the whole pipeline once: upload the image, extract its text,
resolve the book, style the card, and save it.

The book is either one you already own (--book-id) or a title/author pair;
in the latter case the catalog is searched first and a new entry is created
only when no exact match exists.`,
		Example: `  # Attach the card to an owned book
  vericard create --image page.jpg --book-id 42 --background forest --font serif

  # Search-or-create the book by title and author
  vericard create --image page.jpg --title "1984" --author "George Orwell" --isbn 978-0-452-28423-4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bookID == 0 && (title == "" || author == "") {
				return fmt.Errorf("either --book-id or both --title and --author are required")
			}

			cfg := config.Load()
			controller, err := newController(cfg)
			if err != nil {
				return err
			}

			imageData, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			contentType := http.DetectContentType(imageData)

			ctx := cmd.Context()
			draft := controller.NewDraft()

			if err := controller.AttachImage(ctx, draft, imageData, contentType); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Extracted text (%d bytes):\n%s\n\n", len(draft.ExtractedText), draft.ExtractedText)

			if textFile != "" {
				edited, err := os.ReadFile(textFile)
				if err != nil {
					return fmt.Errorf("failed to read text file: %w", err)
				}
				if err := controller.EditText(draft, string(edited)); err != nil {
					return err
				}
			}

			sel := books.Selection{
				OwnedBookID: bookID,
				Title:       title,
				Author:      author,
				Publisher:   publisher,
				ISBN:        isbn,
			}
			if err := controller.ChooseBook(ctx, draft, sel); err != nil {
				return err
			}

			if err := controller.ChooseStyle(draft, background, font); err != nil {
				return err
			}

			card, err := controller.Save(ctx, draft)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created card %d for book %d\n", card.CardID, card.MemberBookID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&imagePath, "image", "i", "", "Path to the page image (required)")
	cmd.Flags().StringVar(&textFile, "text-file", "", "File with the edited card text (defaults to the OCR output)")
	cmd.Flags().Int64Var(&bookID, "book-id", 0, "ID of an already-owned catalog book")
	cmd.Flags().StringVar(&title, "title", "", "Book title (when not using --book-id)")
	cmd.Flags().StringVar(&author, "author", "", "Book author (when not using --book-id)")
	cmd.Flags().StringVar(&publisher, "publisher", "", "Book publisher")
	cmd.Flags().StringVar(&isbn, "isbn", "", "Book ISBN")
	cmd.Flags().StringVarP(&background, "background", "b", "original", "Card background preset")
	cmd.Flags().StringVarP(&font, "font", "f", "serif", "Card font preset")

	_ = cmd.MarkFlagRequired("image")

	return cmd
}
