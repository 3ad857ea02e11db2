package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/9oormthon-univ-Veri/vericard/internal/books"
)

// HandleDraftDetail routes /api/drafts/{id} and its stage actions:
// /text, /book, /style, /save, /attach.
func (h *Handler) HandleDraftDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/drafts/")
	draftID, action, _ := strings.Cut(rest, "/")

	draft, ok := h.getDraftOrError(w, draftID)
	if !ok {
		return
	}

	if action == "" {
		switch r.Method {
		case "GET":
			h.writeJSON(w, draft)
		case "DELETE":
			h.draftStore.Delete(draftID)
			w.WriteHeader(http.StatusNoContent)
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch action {
	case "attach":
		// Retry upload/OCR with the retained raw image.
		if err := h.controller.AttachImage(r.Context(), draft, nil, ""); err != nil {
			h.writeStageError(w, err)
			return
		}
		h.writeJSON(w, draft)
	case "text":
		var body struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.controller.EditText(draft, body.Text); err != nil {
			h.writeStageError(w, err)
			return
		}
		h.writeJSON(w, draft)
	case "book":
		var sel books.Selection
		if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.controller.ChooseBook(r.Context(), draft, sel); err != nil {
			h.writeStageError(w, err)
			return
		}
		h.writeJSON(w, draft)
	case "style":
		var body struct {
			Background string `json:"background"`
			Font       string `json:"font"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
			return
		}
		if err := h.controller.ChooseStyle(draft, body.Background, body.Font); err != nil {
			h.writeStageError(w, err)
			return
		}
		h.writeJSON(w, draft)
	case "save":
		card, err := h.controller.Save(r.Context(), draft)
		if err != nil {
			h.writeStageError(w, err)
			return
		}
		h.writeJSON(w, card)
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
	}
}
