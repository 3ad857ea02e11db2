package covers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCoverURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/b/isbn/") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if strings.Contains(r.URL.Path, "-") {
			t.Errorf("ISBN should be cleaned of hyphens, path %s", r.URL.Path)
		}
		if _, err := w.Write(make([]byte, 4096)); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher()
	fetcher.BaseURL = server.URL

	url, err := fetcher.CoverURL(context.Background(), "978-0-452-28423-4")
	if err != nil {
		t.Fatalf("CoverURL failed: %v", err)
	}
	if !strings.Contains(url, "9780452284234") {
		t.Errorf("Expected cleaned ISBN in URL, got %s", url)
	}
}

func TestCoverURLRejectsPlaceholder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Open Library's "no cover" placeholder is a tiny image.
		if _, err := w.Write(make([]byte, 100)); err != nil {
			t.Fatal(err)
		}
	}))
	defer server.Close()

	fetcher := NewFetcher()
	fetcher.BaseURL = server.URL

	if _, err := fetcher.CoverURL(context.Background(), "9780452284234"); err == nil {
		t.Fatal("Expected error for placeholder cover")
	}
}

func TestCoverURLErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewFetcher()
	fetcher.BaseURL = server.URL

	if _, err := fetcher.CoverURL(context.Background(), "9780452284234"); err == nil {
		t.Fatal("Expected error for 404")
	}
}

func TestCoverURLEmptyISBN(t *testing.T) {
	fetcher := NewFetcher()
	if _, err := fetcher.CoverURL(context.Background(), "   "); err == nil {
		t.Fatal("Expected error for empty ISBN")
	}
}

func TestCleanISBN(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"978-0-452-28423-4", "9780452284234"},
		{" 9780452284234 ", "9780452284234"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanISBN(tt.input); got != tt.expected {
			t.Errorf("CleanISBN(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
