package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/storybooth/storybooth/internal/library"
)

func (h *Handler) HandleListStories(w http.ResponseWriter, r *http.Request) {
	stories, err := h.library.ListReady(r.Context())
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if stories == nil {
		stories = []library.Story{}
	}
	h.writeJSON(w, stories)
}

func (h *Handler) HandleStoryDetail(w http.ResponseWriter, r *http.Request) {
	story, pages, err := h.library.GetStory(r.Context(), r.PathValue("id"))
	if errors.Is(err, library.ErrNotFound) {
		h.writeError(w, "Story not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, map[string]any{
		"story": story,
		"pages": pages,
	})
}

func (h *Handler) HandleStoryPageImage(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(r.PathValue("position"))
	if err != nil {
		h.writeError(w, "Invalid page number", http.StatusBadRequest)
		return
	}

	data, mediaType, err := h.library.PageImage(r.Context(), r.PathValue("id"), position)
	if errors.Is(err, library.ErrNotFound) {
		h.writeError(w, "Page not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", mediaType)
	_, _ = w.Write(data)
}

// HandlePreview serves an ingested original for display.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	// Prevent directory traversal attacks
	if strings.Contains(name, "..") || strings.ContainsRune(name, '/') {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.uploadsDir, name))
}
