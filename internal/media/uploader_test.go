package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
)

// fakeBackend serves the presigned-url endpoint and a storage PUT target.
func fakeBackend(t *testing.T) (*httptest.Server, *int, *[]byte) {
	t.Helper()

	pushes := 0
	var pushed []byte

	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/api/v1/images/presigned-url", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ContentType   string `json:"contentType"`
			ContentLength int    `json:"contentLength"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("bad ticket request body: %v", err)
		}
		if body.ContentType == "" || body.ContentLength == 0 {
			t.Error("ticket request must declare content type and length")
		}
		resp := fmt.Sprintf(`{"isSuccess":true,"code":"OK","message":"","result":{"presignedUrl":"%s/storage/obj1","publicUrl":"https://cdn.veri.app/obj1.jpg"}}`, server.URL)
		if _, err := w.Write([]byte(resp)); err != nil {
			t.Fatal(err)
		}
	})

	mux.HandleFunc("/storage/obj1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Expected PUT, got %s", r.Method)
		}
		if r.Header.Get("Authorization") != "" {
			t.Error("Binary push must not carry the bearer credential")
		}
		data, _ := io.ReadAll(r.Body)
		pushed = data
		pushes++
		w.WriteHeader(http.StatusOK)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &pushes, &pushed
}

func TestUploadTicketThenPush(t *testing.T) {
	server, pushes, pushed := fakeBackend(t)

	client := api.NewClient(server.URL, "token", 5*time.Second)
	uploader := NewUploader(client, 10<<20, 5*time.Second)

	imageData := []byte("fake jpeg bytes")
	publicURL, err := uploader.Upload(context.Background(), imageData, "image/jpeg")
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}

	if publicURL != "https://cdn.veri.app/obj1.jpg" {
		t.Errorf("Expected public URL from ticket, got %q", publicURL)
	}
	if *pushes != 1 {
		t.Errorf("Expected exactly 1 push, got %d", *pushes)
	}
	if !bytes.Equal(*pushed, imageData) {
		t.Error("Pushed bytes differ from input")
	}
}

func TestTicketIsSingleUse(t *testing.T) {
	server, pushes, _ := fakeBackend(t)

	client := api.NewClient(server.URL, "token", 5*time.Second)
	uploader := NewUploader(client, 10<<20, 5*time.Second)

	ticket, err := uploader.RequestTicket(context.Background(), "image/jpeg", 4)
	if err != nil {
		t.Fatalf("RequestTicket failed: %v", err)
	}

	if err := uploader.Push(context.Background(), ticket, []byte("data"), "image/jpeg"); err != nil {
		t.Fatalf("First push failed: %v", err)
	}

	err = uploader.Push(context.Background(), ticket, []byte("data"), "image/jpeg")
	if !errors.Is(err, ErrTicketUsed) {
		t.Fatalf("Expected ErrTicketUsed on second push, got %v", err)
	}
	if *pushes != 1 {
		t.Errorf("Expected 1 push after refused reuse, got %d", *pushes)
	}
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	server, _, _ := fakeBackend(t)

	client := api.NewClient(server.URL, "token", 5*time.Second)
	uploader := NewUploader(client, 8, 5*time.Second)

	_, err := uploader.Upload(context.Background(), []byte("123456789"), "image/jpeg")
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("Expected ErrTooLarge, got %v", err)
	}
}

func TestPushFailureSurfacesStatus(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/api/v1/images/presigned-url", func(w http.ResponseWriter, r *http.Request) {
		resp := fmt.Sprintf(`{"isSuccess":true,"code":"OK","message":"","result":{"presignedUrl":"%s/storage/deny","publicUrl":"https://cdn.veri.app/deny.jpg"}}`, server.URL)
		if _, err := w.Write([]byte(resp)); err != nil {
			t.Fatal(err)
		}
	})
	mux.HandleFunc("/storage/deny", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	client := api.NewClient(server.URL, "token", 5*time.Second)
	uploader := NewUploader(client, 10<<20, 5*time.Second)

	_, err := uploader.Upload(context.Background(), []byte("data"), "image/jpeg")
	if err == nil {
		t.Fatal("Expected error for denied push")
	}
}
