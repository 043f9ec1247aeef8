package storage

import (
	"os"
	"sync"

	"github.com/storybooth/storybooth/internal/models"
)

type SessionStore struct {
	sessions map[string]*models.StorySession
	mu       sync.RWMutex
}

func New() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*models.StorySession),
	}
}

func (s *SessionStore) Get(sessionID string) (*models.StorySession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, exists := s.sessions[sessionID]
	return session, exists
}

func (s *SessionStore) Set(sessionID string, session *models.StorySession) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = session
}

func (s *SessionStore) GetAll() []*models.StorySession {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.StorySession, 0, len(s.sessions))
	for _, session := range s.sessions {
		result = append(result, session)
	}
	return result
}

// Delete drops the session and releases the preview files its items own.
func (s *SessionStore) Delete(sessionID string) {
	s.mu.Lock()
	session, exists := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	if !exists {
		return
	}
	for _, item := range session.Items {
		ReleasePreview(item)
	}
}

// ReleasePreview removes an item's saved original from disk.
func ReleasePreview(item *models.PhotoItem) {
	if item.PreviewPath == "" {
		return
	}
	_ = os.Remove(item.PreviewPath)
	item.PreviewPath = ""
	item.PreviewURL = ""
}
