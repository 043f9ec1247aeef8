package handlers

import (
	"log/slog"
	"net/http"
)

// Register wires every route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.HandleCreateSession)
	mux.HandleFunc("GET /api/sessions", h.HandleListSessions)
	mux.HandleFunc("GET /api/sessions/{id}", h.HandleSessionDetail)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.HandleDeleteSession)
	mux.HandleFunc("PUT /api/sessions/{id}/order", h.HandleReorder)

	mux.HandleFunc("POST /api/sessions/{id}/photos", h.HandleAddPhotos)
	mux.HandleFunc("PATCH /api/sessions/{id}/photos/{itemID}", h.HandleEditCaptions)
	mux.HandleFunc("DELETE /api/sessions/{id}/photos/{itemID}", h.HandleRemovePhoto)

	mux.HandleFunc("POST /api/sessions/{id}/transform", h.HandleTransform)
	mux.HandleFunc("POST /api/sessions/{id}/translate", h.HandleTranslate)
	mux.HandleFunc("POST /api/sessions/{id}/finalize", h.HandleFinalize)
	mux.HandleFunc("POST /api/sessions/{id}/finalize/commit", h.HandleRetryCommit)

	mux.HandleFunc("GET /api/stories", h.HandleListStories)
	mux.HandleFunc("GET /api/stories/{id}", h.HandleStoryDetail)
	mux.HandleFunc("GET /api/stories/{id}/pages/{position}", h.HandleStoryPageImage)

	mux.HandleFunc("GET /previews/{name}", h.HandlePreview)

	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}
