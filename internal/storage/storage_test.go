package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/storybooth/storybooth/internal/models"
)

func TestSessionStoreRoundTrip(t *testing.T) {
	store := New()

	if _, exists := store.Get("missing"); exists {
		t.Error("Get on empty store reported a session")
	}

	session := &models.StorySession{ID: "s1", Stage: models.StageUpload}
	store.Set("s1", session)

	got, exists := store.Get("s1")
	if !exists || got.ID != "s1" {
		t.Fatalf("Get returned %v, %v", got, exists)
	}

	if n := len(store.GetAll()); n != 1 {
		t.Errorf("GetAll returned %d sessions, want 1", n)
	}
}

func TestDeleteReleasesPreviews(t *testing.T) {
	dir := t.TempDir()
	preview := filepath.Join(dir, "abc.jpg")
	if err := os.WriteFile(preview, []byte("jpeg"), 0644); err != nil {
		t.Fatal(err)
	}

	store := New()
	store.Set("s1", &models.StorySession{
		ID: "s1",
		Items: []*models.PhotoItem{
			{ID: "a", PreviewPath: preview, PreviewURL: "/previews/abc.jpg"},
		},
	})

	store.Delete("s1")

	if _, exists := store.Get("s1"); exists {
		t.Error("session still present after Delete")
	}
	if _, err := os.Stat(preview); !os.IsNotExist(err) {
		t.Errorf("preview file still exists after Delete: %v", err)
	}
}
