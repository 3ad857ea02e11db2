package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/9oormthon-univ-Veri/vericard/internal/books"
	"github.com/9oormthon-univ-Veri/vericard/internal/cards"
	"github.com/9oormthon-univ-Veri/vericard/internal/media"
	"github.com/9oormthon-univ-Veri/vericard/internal/models"
	"github.com/9oormthon-univ-Veri/vericard/internal/ocr"
	"github.com/google/uuid"
)

// State is one stage of the card-creation pipeline.
type State string

const (
	StateCapturing     State = "capturing"
	StateUploading     State = "uploading"
	StateExtracting    State = "extracting"
	StateEditing       State = "editing"
	StateResolvingBook State = "resolving_book"
	StateCustomizing   State = "customizing"
	StatePersisting    State = "persisting"
	StateComplete      State = "complete"
)

// ErrEmptyEdit means the user tried to save an empty text edit.
var ErrEmptyEdit = errors.New("card text must not be empty")

// ErrIncompleteDraft means Save was invoked on a draft missing a field
// the persistence invariant requires.
var ErrIncompleteDraft = errors.New("draft is missing required fields")

// StateError reports an operation attempted in the wrong pipeline stage.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s while draft is in state %q", e.Op, e.State)
}

// CardDraft is the accumulated state of one workflow run. Each stage
// only adds fields; nothing populated by an earlier stage is ever
// overwritten. Drafts are transient: only the terminal ReadingCard
// projection is persisted.
//
// Serve mode can address one draft from concurrent requests, so every
// stage transition and every JSON encode holds the draft lock.
type CardDraft struct {
	mu sync.Mutex

	ID    string `json:"id"`
	State State  `json:"state"`

	// Raw capture, retained until the upload succeeds so a failed push
	// can be retried without re-selecting the file.
	RawImage       []byte `json:"-"`
	RawContentType string `json:"-"`

	UploadedImageURL string `json:"uploadedImageUrl,omitempty"`
	ExtractedText    string `json:"extractedText,omitempty"`
	EditedText       string `json:"editedText,omitempty"`

	Book       models.BookRef      `json:"book"`
	Background string              `json:"background,omitempty"`
	Font       string              `json:"font,omitempty"`
	Render     *cards.RenderSpec   `json:"render,omitempty"`
	Card       *models.ReadingCard `json:"card,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// MarshalJSON takes the draft lock so a draft is never encoded while a
// concurrent request is advancing it.
func (d *CardDraft) MarshalJSON() ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	type plain CardDraft
	return json.Marshal((*plain)(d))
}

// Controller drives the stage sequence. It is the only component that
// talks to more than one service, and it advances a draft only after the
// prior stage's call resolves.
type Controller struct {
	uploader *media.Uploader
	ocr      *ocr.Service
	resolver *books.Resolver
	palette  *cards.Palette
	cards    *cards.Service
}

// NewController wires the stage services together.
func NewController(uploader *media.Uploader, ocrService *ocr.Service, resolver *books.Resolver, palette *cards.Palette, cardService *cards.Service) *Controller {
	return &Controller{
		uploader: uploader,
		ocr:      ocrService,
		resolver: resolver,
		palette:  palette,
		cards:    cardService,
	}
}

// NewDraft starts a workflow run in the capture stage.
func (c *Controller) NewDraft() *CardDraft {
	return &CardDraft{
		ID:        uuid.NewString(),
		State:     StateCapturing,
		CreatedAt: time.Now(),
	}
}

// AttachImage runs capture -> upload -> extract. Passing nil data reuses
// the draft's retained raw image (push retry after an upload failure).
//
// The uploaded URL is written once and never re-derived: if upload
// already succeeded, a retry skips straight to OCR rather than paying
// for a second push. On upload failure the draft stays capturable with
// the raw image retained; on OCR failure, including empty text, the
// attempt is over and the draft returns to the capture stage.
func (c *Controller) AttachImage(ctx context.Context, d *CardDraft, data []byte, contentType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.State != StateCapturing {
		return &StateError{Op: "attach image", State: d.State}
	}

	if len(data) == 0 {
		data, contentType = d.RawImage, d.RawContentType
	}
	if len(data) == 0 {
		return fmt.Errorf("no image selected")
	}
	d.RawImage = data
	d.RawContentType = contentType

	if d.UploadedImageURL == "" {
		d.State = StateUploading
		publicURL, err := c.uploader.Upload(ctx, data, contentType)
		if err != nil {
			d.State = StateCapturing
			return fmt.Errorf("upload failed: %w", err)
		}
		d.UploadedImageURL = publicURL
	}

	d.State = StateExtracting
	text, err := c.ocr.ExtractText(ctx, d.UploadedImageURL)
	if err != nil {
		d.State = StateCapturing
		return fmt.Errorf("text extraction failed: %w", err)
	}

	d.ExtractedText = text
	d.EditedText = text
	d.RawImage = nil
	d.State = StateEditing

	slog.Info("Draft ready for editing", "draft_id", d.ID, "image_url", d.UploadedImageURL, "text_length", len(text))
	return nil
}

// EditText replaces the draft text with the user's edit. Local only.
func (c *Controller) EditText(d *CardDraft, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.State != StateEditing {
		return &StateError{Op: "edit text", State: d.State}
	}
	if strings.TrimSpace(text) == "" {
		return ErrEmptyEdit
	}
	d.EditedText = text
	return nil
}

// ChooseBook resolves the selection to a catalog entry. On failure the
// draft stays in the resolving stage so the selection can be retried.
func (c *Controller) ChooseBook(ctx context.Context, d *CardDraft, sel books.Selection) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.State != StateEditing && d.State != StateResolvingBook {
		return &StateError{Op: "choose book", State: d.State}
	}

	d.State = StateResolvingBook
	ref, err := c.resolver.Resolve(ctx, sel)
	if err != nil {
		return fmt.Errorf("book resolution failed: %w", err)
	}

	d.Book = ref
	d.State = StateCustomizing
	return nil
}

// ChooseStyle validates the style keys and composes the render spec.
// Local only; unknown keys are rejected and the draft stays customizable.
func (c *Controller) ChooseStyle(d *CardDraft, background, font string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.State != StateCustomizing {
		return &StateError{Op: "choose style", State: d.State}
	}

	spec, err := c.palette.Compose(d.EditedText, background, font)
	if err != nil {
		return err
	}

	d.Background = background
	d.Font = font
	d.Render = &spec
	d.State = StatePersisting
	return nil
}

// Save persists the card. The invariant is enforced, not assumed: image
// URL, text and a resolved book ref must all be present. On failure the
// draft keeps its resolved book ref and stays in the persisting stage,
// so a retry reuses the already-created catalog entry instead of
// re-running the resolver and multiplying orphans.
//
// The draft lock is held across the persist call, so a concurrent save
// on the same draft waits and then fails the stage guard: one card per
// completed run, even under a double-submit.
func (c *Controller) Save(ctx context.Context, d *CardDraft) (*models.ReadingCard, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.State != StatePersisting {
		return nil, &StateError{Op: "save", State: d.State}
	}

	if d.UploadedImageURL == "" || strings.TrimSpace(d.EditedText) == "" || !d.Book.Resolved() {
		return nil, ErrIncompleteDraft
	}

	cardID, err := c.cards.Create(ctx, d.Book.MemberBookID, d.EditedText, d.UploadedImageURL)
	if err != nil {
		return nil, fmt.Errorf("card save failed: %w", err)
	}

	d.Card = &models.ReadingCard{
		CardID:       cardID,
		MemberBookID: d.Book.MemberBookID,
		Content:      d.EditedText,
		ImageURL:     d.UploadedImageURL,
		CreatedAt:    time.Now(),
	}
	d.State = StateComplete

	slog.Info("Workflow complete", "draft_id", d.ID, "card_id", cardID)
	return d.Card, nil
}
