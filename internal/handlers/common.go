package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/9oormthon-univ-Veri/vericard/internal/api"
	"github.com/9oormthon-univ-Veri/vericard/internal/books"
	"github.com/9oormthon-univ-Veri/vericard/internal/cards"
	"github.com/9oormthon-univ-Veri/vericard/internal/ocr"
	"github.com/9oormthon-univ-Veri/vericard/internal/workflow"
)

type Handler struct {
	draftStore    *workflow.DraftStore
	controller    *workflow.Controller
	maxImageBytes int64
}

func New(controller *workflow.Controller, maxImageBytes int64) *Handler {
	return &Handler{
		draftStore:    workflow.NewStore(),
		controller:    controller,
		maxImageBytes: maxImageBytes,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// stageStatus maps pipeline failures to status codes so the UI can tell
// the user which stage to retry and how.
func stageStatus(err error) int {
	var stateErr *workflow.StateError
	var validationErr *cards.ValidationError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, ocr.ErrEmptyText),
		errors.Is(err, workflow.ErrEmptyEdit),
		errors.Is(err, workflow.ErrIncompleteDraft),
		errors.Is(err, books.ErrMissingFields):
		return http.StatusUnprocessableEntity
	case errors.As(err, &stateErr):
		return http.StatusConflict
	case errors.Is(err, api.ErrNoToken):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

func (h *Handler) writeStageError(w http.ResponseWriter, err error) {
	h.writeError(w, err.Error(), stageStatus(err))
}

// writeDraftStageError reports a stage failure on a draft that survives
// for retry. The draft id rides along so the client can address the
// retry without listing drafts.
func (h *Handler) writeDraftStageError(w http.ResponseWriter, draftID string, err error) {
	slog.Error(err.Error(), "draft_id", draftID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(stageStatus(err))
	body := map[string]string{
		"error":   err.Error(),
		"draftId": draftID,
	}
	if encErr := json.NewEncoder(w).Encode(body); encErr != nil {
		slog.Error("Unable to encode JSON response", "err", encErr)
	}
}

// Draft helpers
func (h *Handler) getDraftOrError(w http.ResponseWriter, draftID string) (*workflow.CardDraft, bool) {
	draft, exists := h.draftStore.Get(draftID)
	if !exists {
		h.writeError(w, "Draft not found", http.StatusNotFound)
		return nil, false
	}
	return draft, true
}
