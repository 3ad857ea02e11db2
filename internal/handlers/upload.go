package handlers

import (
	"io"
	"net/http"
)

// HandleDrafts creates a draft from an uploaded page image (POST) or
// lists in-flight drafts (GET).
func (h *Handler) HandleDrafts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		drafts := h.draftStore.GetAll()
		draftList := make([]any, 0, len(drafts))
		for _, draft := range drafts {
			draftList = append(draftList, draft)
		}
		h.writeJSON(w, draftList)
	case "POST":
		h.handleCreateDraft(w, r)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleCreateDraft reads the image, then runs capture -> upload ->
// extract on a fresh draft. The draft is stored even when a stage fails
// so the client can retry the push without re-selecting the file. The
// request context rides along so a disconnect aborts in-flight calls.
func (h *Handler) handleCreateDraft(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("image")
	if err != nil {
		file, header, err = r.FormFile("file")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if int64(len(imageData)) > h.maxImageBytes {
		h.writeError(w, "File too large", http.StatusBadRequest)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(imageData)
	}

	draft := h.controller.NewDraft()
	h.draftStore.Set(draft.ID, draft)

	if err := h.controller.AttachImage(r.Context(), draft, imageData, contentType); err != nil {
		h.writeDraftStageError(w, draft.ID, err)
		return
	}

	h.writeJSON(w, draft)
}
