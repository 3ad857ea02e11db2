package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
	"github.com/9oormthon-univ-Veri/vericard/internal/models"
)

var (
	// ErrTicketUsed means a ticket's presigned URL was already consumed
	// by a successful push and must not be reused.
	ErrTicketUsed = errors.New("upload ticket already used")

	// ErrTooLarge means the image exceeds the configured upload limit.
	ErrTooLarge = errors.New("image exceeds upload size limit")
)

// Ticket is a single-use upload authorization.
type Ticket struct {
	models.UploadTicket
	used bool
}

// Uploader pushes image binaries to object storage through single-use
// presigned tickets issued by the Veri backend.
type Uploader struct {
	client     *api.Client
	httpClient *http.Client
	maxBytes   int64
}

// NewUploader creates a new uploader. The raw binary PUT goes directly
// to storage, so it gets its own HTTP client and timeout.
func NewUploader(client *api.Client, maxBytes int64, pushTimeout time.Duration) *Uploader {
	return &Uploader{
		client: client,
		httpClient: &http.Client{
			Timeout: pushTimeout,
		},
		maxBytes: maxBytes,
	}
}

// RequestTicket asks the backend for a presigned upload URL, declaring
// content type and length up front.
func (u *Uploader) RequestTicket(ctx context.Context, contentType string, contentLength int) (*Ticket, error) {
	body := map[string]any{
		"contentType":   contentType,
		"contentLength": contentLength,
	}

	var result models.UploadTicket
	if err := u.client.Post(ctx, "/api/v1/images/presigned-url", body, &result); err != nil {
		return nil, fmt.Errorf("failed to request upload ticket: %w", err)
	}

	if result.PresignedURL == "" || result.PublicURL == "" {
		return nil, fmt.Errorf("backend returned incomplete upload ticket")
	}

	return &Ticket{UploadTicket: result}, nil
}

// Push writes the raw bytes to the ticket's presigned URL. The PUT is
// not enveloped; success is judged purely by HTTP status. A successful
// push consumes the ticket.
func (u *Uploader) Push(ctx context.Context, t *Ticket, data []byte, contentType string) error {
	if t.used {
		return ErrTicketUsed
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, t.PresignedURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create push request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.ContentLength = int64(len(data))

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to push image to storage: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("storage returned status %d: %s", resp.StatusCode, string(slurp))
	}

	t.used = true
	return nil
}

// Upload runs the full ticket-then-push sequence and returns the public
// URL, which is stable for the remainder of the workflow.
func (u *Uploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data to upload")
	}
	if int64(len(data)) > u.maxBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), u.maxBytes)
	}

	ticket, err := u.RequestTicket(ctx, contentType, len(data))
	if err != nil {
		return "", err
	}

	if err := u.Push(ctx, ticket, data, contentType); err != nil {
		return "", err
	}

	slog.Info("Uploaded image", "url", ticket.PublicURL, "bytes", len(data), "content_type", contentType)
	return ticket.PublicURL, nil
}
