package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
	"github.com/9oormthon-univ-Veri/vericard/internal/covers"
	"github.com/9oormthon-univ-Veri/vericard/internal/models"
	"golang.org/x/sync/singleflight"
)

// ErrMissingFields means a pending selection lacks the title or author
// needed to look up or create a catalog entry.
var ErrMissingFields = errors.New("book selection requires title and author")

// Selection is one of the two resolver entry paths: an already-owned
// catalog book (OwnedBookID set), or a title/author pair that may or may
// not exist in the member's catalog yet.
type Selection struct {
	OwnedBookID int64  `json:"ownedBookId,omitempty"`
	Title       string `json:"title,omitempty"`
	Author      string `json:"author,omitempty"`
	Publisher   string `json:"publisher,omitempty"`
	ISBN        string `json:"isbn,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

// Resolver turns a book selection into a concrete catalog reference,
// creating the catalog entry only when lookup reports not-found.
//
// Creation for a given normalized (title, author) key is serialized
// through singleflight and a resolved cache, so concurrent or repeated
// resolutions within one session create at most one entry. Cross-session
// races remain a server-side responsibility.
type Resolver struct {
	client *api.Client
	covers *covers.Fetcher

	group    singleflight.Group
	mu       sync.Mutex
	resolved map[string]int64
}

// NewResolver creates a new book resolver. The cover fetcher is optional;
// when present it fills in a cover image for entries created without one.
func NewResolver(client *api.Client, coverFetcher *covers.Fetcher) *Resolver {
	return &Resolver{
		client:   client,
		covers:   coverFetcher,
		resolved: make(map[string]int64),
	}
}

// Resolve returns a resolved BookRef for the selection.
func (r *Resolver) Resolve(ctx context.Context, sel Selection) (models.BookRef, error) {
	// Owned books are already catalog entries; no network call needed.
	if sel.OwnedBookID != 0 {
		return models.BookRef{
			MemberBookID: sel.OwnedBookID,
			Title:        sel.Title,
			Author:       sel.Author,
		}, nil
	}

	if strings.TrimSpace(sel.Title) == "" || strings.TrimSpace(sel.Author) == "" {
		return models.BookRef{}, ErrMissingFields
	}

	key := NormalizeKey(sel.Title, sel.Author)

	r.mu.Lock()
	id, ok := r.resolved[key]
	r.mu.Unlock()
	if ok {
		return r.refFor(id, sel), nil
	}

	v, err, _ := r.group.Do(key, func() (any, error) {
		return r.lookupOrCreate(ctx, sel)
	})
	if err != nil {
		return models.BookRef{}, err
	}

	id = v.(int64)
	r.mu.Lock()
	r.resolved[key] = id
	r.mu.Unlock()

	return r.refFor(id, sel), nil
}

func (r *Resolver) refFor(id int64, sel Selection) models.BookRef {
	return models.BookRef{
		MemberBookID: id,
		Title:        sel.Title,
		Author:       sel.Author,
		ImageURL:     sel.ImageURL,
		Publisher:    sel.Publisher,
		ISBN:         sel.ISBN,
	}
}

// lookupOrCreate checks the catalog before creating. A lookup transport
// error is surfaced as-is and never falls through to create, because a
// false not-found would mint a duplicate entry.
func (r *Resolver) lookupOrCreate(ctx context.Context, sel Selection) (int64, error) {
	id, err := r.lookup(ctx, sel.Title, sel.Author)
	if err != nil {
		return 0, fmt.Errorf("book lookup failed: %w", err)
	}
	if id != 0 {
		slog.Info("Book already in catalog", "member_book_id", id, "title", sel.Title)
		return id, nil
	}

	return r.create(ctx, sel)
}

// lookup performs an exact-match search by title and author. The sent
// values carry the same normalization as the dedupe key, so a padded or
// re-cased reference still finds the existing entry. A zero or absent
// result means not-found.
func (r *Resolver) lookup(ctx context.Context, title, author string) (int64, error) {
	query := url.Values{}
	query.Set("title", normalize(title))
	query.Set("author", normalize(author))

	var id int64
	if err := r.client.Get(ctx, "/api/v1/member-books/search", query, &id); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Resolver) create(ctx context.Context, sel Selection) (int64, error) {
	imageURL := sel.ImageURL
	if imageURL == "" && sel.ISBN != "" && r.covers != nil {
		coverURL, err := r.covers.CoverURL(ctx, sel.ISBN)
		if err != nil {
			slog.Debug("No cover found for new book", "isbn", sel.ISBN, "error", err)
		} else {
			imageURL = coverURL
		}
	}

	body := map[string]any{
		"title":     sel.Title,
		"image":     imageURL,
		"author":    sel.Author,
		"publisher": sel.Publisher,
		"isbn":      sel.ISBN,
	}

	var result struct {
		MemberBookID int64     `json:"memberBookId"`
		CreatedAt    time.Time `json:"createdAt"`
	}
	if err := r.client.Post(ctx, "/api/v1/member-books", body, &result); err != nil {
		return 0, fmt.Errorf("book create failed: %w", err)
	}
	if result.MemberBookID == 0 {
		return 0, fmt.Errorf("backend returned no id for created book")
	}

	slog.Info("Created catalog entry", "member_book_id", result.MemberBookID, "title", sel.Title, "author", sel.Author)
	return result.MemberBookID, nil
}

// NormalizeKey builds the dedupe key for a title/author pair: trimmed,
// case-folded, inner whitespace collapsed.
func NormalizeKey(title, author string) string {
	return normalize(title) + "\x00" + normalize(author)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
