package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storybooth/storybooth/internal/finalize"
	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/translate"
)

// HandleTransform runs the transformation batch over the session's photos.
// The call returns once the whole batch has been attempted; per-item failures
// are reported on the items themselves.
func (h *Handler) HandleTransform(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if len(session.Items) == 0 {
		h.writeError(w, "Session has no photos to transform", http.StatusBadRequest)
		return
	}
	if !models.CanTransition(session.Stage, models.StageTransforming) {
		h.writeError(w, "Session cannot be transformed from stage "+string(session.Stage), http.StatusConflict)
		return
	}

	if err := h.orchestrator.Run(r.Context(), session); err != nil {
		h.writeJSON(w, map[string]any{
			"session": session,
			"error":   err.Error(),
		})
		return
	}
	h.writeJSON(w, session)
}

// HandleTranslate batch-translates captions in the requested direction.
func (h *Handler) HandleTranslate(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	var request struct {
		Direction string `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	direction, err := translate.ParseDirection(request.Direction)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if session.Stage != models.StageReview {
		h.writeError(w, "Captions can only be translated during review", http.StatusConflict)
		return
	}

	if err := h.translator.Run(r.Context(), session, direction); err != nil {
		h.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}
	h.writeJSON(w, session)
}

// HandleFinalize commits the session's completed photos as a persisted story.
// On success the session is removed and its previews released.
func (h *Handler) HandleFinalize(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if session.Stage != models.StageReview {
		h.writeError(w, "Session can only be finalized from review", http.StatusConflict)
		return
	}

	result, err := h.finalizer.Run(r.Context(), session)
	var commitErr *finalize.CommitError
	switch {
	case errors.As(err, &commitErr):
		// Pages are uploaded; only the commit is missing. Keep the session so
		// the commit can be retried without re-uploading.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"story_id":       commitErr.StoryID,
			"commit_pending": true,
			"error":          commitErr.Error(),
			"result":         result,
		})
		return
	case err != nil:
		h.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	h.sessionStore.Delete(session.ID)
	h.writeJSON(w, result)
}

// HandleRetryCommit re-issues only the final commit for a story whose pages
// already uploaded.
func (h *Handler) HandleRetryCommit(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	if err := h.finalizer.RetryCommit(r.Context(), session); err != nil {
		h.writeError(w, err.Error(), http.StatusBadGateway)
		return
	}

	storyID := session.ContainerID
	h.sessionStore.Delete(session.ID)
	h.writeJSON(w, map[string]any{"story_id": storyID})
}
