// Package ingest is the system boundary for user photos: it validates
// candidate files and turns the accepted ones into pending session items.
package ingest

import (
	"crypto/md5"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/storybooth/storybooth/internal/models"
)

// MaxFileSize caps a single photo at 15 MB.
const MaxFileSize = 15 * 1024 * 1024

var supportedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/gif":  true,
}

// File is one candidate photo presented at the boundary.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Rejection explains why a candidate file was not accepted.
type Rejection struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report summarizes one ingestion call.
type Report struct {
	Accepted   []*models.PhotoItem `json:"-"`
	Rejections []Rejection         `json:"rejections,omitempty"`

	// Dropped counts valid files turned away because the session was full.
	Dropped int `json:"dropped,omitempty"`
}

// Ingestor validates files and appends items to sessions.
type Ingestor struct {
	uploadsDir string
}

func New(uploadsDir string) *Ingestor {
	return &Ingestor{uploadsDir: uploadsDir}
}

// Ingest validates each candidate in order and appends accepted ones to the
// session as pending items, up to the session's remaining capacity. Valid
// files beyond capacity are counted in Report.Dropped.
func (ing *Ingestor) Ingest(session *models.StorySession, files []File) (*Report, error) {
	if err := os.MkdirAll(ing.uploadsDir, 0755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}

	report := &Report{}
	capacity := models.MaxItems - len(session.Items)

	for _, f := range files {
		if reason := validate(f); reason != "" {
			report.Rejections = append(report.Rejections, Rejection{Name: f.Name, Reason: reason})
			continue
		}
		if capacity <= 0 {
			report.Dropped++
			continue
		}

		item, err := ing.newItem(f)
		if err != nil {
			report.Rejections = append(report.Rejections, Rejection{Name: f.Name, Reason: err.Error()})
			continue
		}

		session.Items = append(session.Items, item)
		report.Accepted = append(report.Accepted, item)
		capacity--
	}

	if report.Dropped > 0 {
		slog.Warn("Session at capacity, photos dropped",
			"session_id", session.ID, "dropped", report.Dropped, "max", models.MaxItems)
	}
	return report, nil
}

func validate(f File) string {
	contentType := f.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(f.Data)
	}
	// Strip any charset suffix before the lookup.
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}

	if !supportedTypes[contentType] {
		return fmt.Sprintf("unsupported file type %q (supported: png, jpeg, webp, gif)", contentType)
	}
	if len(f.Data) > MaxFileSize {
		return fmt.Sprintf("file too large (%d bytes, max %d)", len(f.Data), MaxFileSize)
	}
	if len(f.Data) == 0 {
		return "empty file"
	}
	return ""
}

func (ing *Ingestor) newItem(f File) (*models.PhotoItem, error) {
	// Content-addressed filename, so re-uploading the same photo reuses the file.
	hash := fmt.Sprintf("%x", md5.Sum(f.Data))
	ext := filepath.Ext(f.Name)
	if ext == "" {
		ext = ".img"
	}
	previewName := hash + ext
	previewPath := filepath.Join(ing.uploadsDir, previewName)

	if err := os.WriteFile(previewPath, f.Data, 0644); err != nil {
		return nil, fmt.Errorf("save preview: %w", err)
	}

	item := &models.PhotoItem{
		ID:          uuid.NewString(),
		SourceName:  f.Name,
		SourceData:  f.Data,
		PreviewPath: previewPath,
		PreviewURL:  "/previews/" + previewName,
		Status:      models.StatusPending,
	}

	slog.Info("Photo ingested", "item_id", item.ID, "name", f.Name, "bytes", len(f.Data))
	return item, nil
}
