package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/storybooth/storybooth/internal/models"
)

func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title             string `json:"title"`
		StoryContext      string `json:"story_context"`
		IllustrationStyle string `json:"illustration_style"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	session := &models.StorySession{
		ID:                uuid.NewString(),
		Title:             request.Title,
		StoryContext:      request.StoryContext,
		IllustrationStyle: request.IllustrationStyle,
		Stage:             models.StageUpload,
		CreatedAt:         time.Now(),
	}
	h.sessionStore.Set(session.ID, session)

	h.writeJSON(w, session)
}

func (h *Handler) HandleListSessions(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.sessionStore.GetAll())
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	h.writeJSON(w, session)
}

// HandleDeleteSession abandons an in-progress import; previews are released.
func (h *Handler) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	if _, ok := h.getSessionOrError(w, sessionID); !ok {
		return
	}
	h.sessionStore.Delete(sessionID)
	w.WriteHeader(http.StatusNoContent)
}

// HandleReorder applies a user-driven reordering. Only the user moves items;
// the pipeline itself never changes their order.
func (h *Handler) HandleReorder(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if session.Stage != models.StageUpload && session.Stage != models.StageReview {
		h.writeError(w, "Session is busy, cannot reorder now", http.StatusConflict)
		return
	}

	var request struct {
		ItemIDs []string `json:"item_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := session.Reorder(request.ItemIDs); err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.writeJSON(w, session)
}
