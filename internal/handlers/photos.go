package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/storybooth/storybooth/internal/ingest"
	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/storage"
)

// HandleAddPhotos accepts either a multipart form with one or more files, or
// a JSON body with an image URL.
func (h *Handler) HandleAddPhotos(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if session.Stage != models.StageUpload {
		h.writeError(w, "Photos can only be added during upload", http.StatusConflict)
		return
	}

	contentType := r.Header.Get("Content-Type")
	if strings.Contains(contentType, "application/json") {
		h.addPhotoFromURL(w, r, session)
		return
	}
	h.addPhotoFiles(w, r, session)
}

func (h *Handler) addPhotoFromURL(w http.ResponseWriter, r *http.Request, session *models.StorySession) {
	var request struct {
		ImageURL string `json:"image_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.ImageURL == "" {
		h.writeError(w, "image_url is required", http.StatusBadRequest)
		return
	}

	file, err := ingest.FetchURL(request.ImageURL)
	if err != nil {
		h.writeError(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
		return
	}

	h.runIngest(w, session, []ingest.File{file})
}

func (h *Handler) addPhotoFiles(w http.ResponseWriter, r *http.Request, session *models.StorySession) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	var files []ingest.File
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
				return
			}
			data, err := io.ReadAll(io.LimitReader(f, ingest.MaxFileSize+1))
			_ = f.Close()
			if err != nil {
				h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
				return
			}
			files = append(files, ingest.File{
				Name:        header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Data:        data,
			})
		}
	}
	if len(files) == 0 {
		h.writeError(w, "No files in upload", http.StatusBadRequest)
		return
	}

	h.runIngest(w, session, files)
}

func (h *Handler) runIngest(w http.ResponseWriter, session *models.StorySession, files []ingest.File) {
	report, err := h.ingestor.Ingest(session, files)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, map[string]any{
		"session_id": session.ID,
		"message":    fmt.Sprintf("Accepted %d photo(s)", len(report.Accepted)),
		"accepted":   len(report.Accepted),
		"rejections": report.Rejections,
		"dropped":    report.Dropped,
		"items":      session.Items,
	})
}

// HandleEditCaptions updates an item's captions during review.
func (h *Handler) HandleEditCaptions(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if session.Stage != models.StageReview {
		h.writeError(w, "Captions can only be edited during review", http.StatusConflict)
		return
	}

	item, _ := session.ItemByID(r.PathValue("itemID"))
	if item == nil {
		h.writeError(w, "Photo not found", http.StatusNotFound)
		return
	}

	var request struct {
		CaptionPrimary   *string `json:"caption_primary"`
		CaptionSecondary *string `json:"caption_secondary"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if request.CaptionPrimary != nil {
		item.CaptionPrimary = *request.CaptionPrimary
	}
	if request.CaptionSecondary != nil {
		item.CaptionSecondary = *request.CaptionSecondary
	}
	h.writeJSON(w, item)
}

// HandleRemovePhoto removes an item and releases its preview.
func (h *Handler) HandleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	session, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}
	if session.Stage != models.StageUpload && session.Stage != models.StageReview {
		h.writeError(w, "Session is busy, cannot remove photos now", http.StatusConflict)
		return
	}

	item := session.RemoveItem(r.PathValue("itemID"))
	if item == nil {
		h.writeError(w, "Photo not found", http.StatusNotFound)
		return
	}
	storage.ReleasePreview(item)

	w.WriteHeader(http.StatusNoContent)
}
