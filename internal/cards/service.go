package cards

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
)

// Service persists finished reading cards.
type Service struct {
	client *api.Client
}

// NewService creates a new card persistence service.
func NewService(client *api.Client) *Service {
	return &Service{client: client}
}

// Create persists the card in a single request and returns its id. The
// client performs no local compensation on failure; the caller keeps the
// resolved book ref so a retry reuses it.
func (s *Service) Create(ctx context.Context, memberBookID int64, content, imageURL string) (int64, error) {
	body := map[string]any{
		"memberBookId": memberBookID,
		"content":      content,
		"imageUrl":     imageURL,
	}

	var result struct {
		CardID int64 `json:"cardId"`
	}
	if err := s.client.Post(ctx, "/api/v1/cards", body, &result); err != nil {
		return 0, fmt.Errorf("card create failed: %w", err)
	}
	if result.CardID == 0 {
		return 0, fmt.Errorf("backend returned no id for created card")
	}

	slog.Info("Created reading card", "card_id", result.CardID, "member_book_id", memberBookID, "length", len(content))
	return result.CardID, nil
}
