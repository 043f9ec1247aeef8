package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/storybooth/storybooth/internal/config"
	"github.com/storybooth/storybooth/internal/finalize"
	"github.com/storybooth/storybooth/internal/ingest"
	"github.com/storybooth/storybooth/internal/library"
	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/providers"
	"github.com/storybooth/storybooth/internal/storage"
	"github.com/storybooth/storybooth/internal/transform"
	"github.com/storybooth/storybooth/internal/translate"
)

type Handler struct {
	sessionStore *storage.SessionStore
	ingestor     *ingest.Ingestor
	orchestrator *transform.Orchestrator
	translator   *translate.Translator
	finalizer    *finalize.Finalizer
	library      *library.Library
	uploadsDir   string
}

func New(cfg config.Config, provider providers.Provider, lib *library.Library) *Handler {
	return &Handler{
		sessionStore: storage.New(),
		ingestor:     ingest.New(cfg.UploadsDir()),
		orchestrator: transform.New(provider, time.Duration(cfg.PaceDelay)),
		translator:   translate.New(provider, cfg.LanguagePrimary, cfg.LanguageSecondary),
		finalizer:    finalize.New(lib),
		library:      lib,
		uploadsDir:   cfg.UploadsDir(),
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

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*models.StorySession, bool) {
	session, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return session, true
}
