package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/storybooth/storybooth/internal/finalize"
)

// Story states. A story is created as a draft and becomes ready only when
// its commit succeeds; listings expose ready stories.
const (
	StateDraft = "draft"
	StateReady = "ready"
)

// Story is one persisted storybook.
type Story struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	StoryContext string     `json:"story_context"`
	Style        string     `json:"style"`
	TotalPages   int        `json:"total_pages"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// StoryPage is one persisted page; the image lives on disk at ImagePath.
type StoryPage struct {
	StoryID          string `json:"story_id"`
	Position         int    `json:"position"`
	ImagePath        string `json:"-"`
	MediaType        string `json:"media_type"`
	CaptionPrimary   string `json:"caption_primary"`
	CaptionSecondary string `json:"caption_secondary,omitempty"`
	IsCover          bool   `json:"is_cover"`
}

// CreateStory inserts a draft story and returns its ID.
func (l *Library) CreateStory(ctx context.Context, meta finalize.StoryMeta) (string, error) {
	id := uuid.NewString()
	now := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO stories (id, title, story_context, style, total_pages, state, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, meta.Title, meta.StoryContext, meta.Style, meta.TotalPages, StateDraft, now)
	if err != nil {
		return "", fmt.Errorf("insert story: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(l.imagesDir, id), 0755); err != nil {
		return "", fmt.Errorf("create story directory: %w", err)
	}
	return id, nil
}

// AddPage stores the page image on disk and records the page row.
func (l *Library) AddPage(ctx context.Context, storyID string, page finalize.Page) error {
	imagePath := filepath.Join(l.imagesDir, storyID, fmt.Sprintf("page-%03d%s", page.Position, extensionFor(page.MediaType)))
	if err := os.WriteFile(imagePath, page.Image, 0644); err != nil {
		return fmt.Errorf("write page image: %w", err)
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO pages (story_id, position, image_path, media_type, caption_primary, caption_secondary, is_cover)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		storyID, page.Position, imagePath, page.MediaType, page.CaptionPrimary, page.CaptionSecondary, boolToInt(page.IsCover))
	if err != nil {
		// Keep rows and files consistent when the insert loses.
		_ = os.Remove(imagePath)
		return fmt.Errorf("insert page: %w", err)
	}
	return nil
}

// PublishStory marks a draft story ready. Publishing an already-ready story
// is a no-op so commit retries stay safe.
func (l *Library) PublishStory(ctx context.Context, storyID string) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := l.db.ExecContext(ctx,
		`UPDATE stories SET state = ?, published_at = ? WHERE id = ? AND state != ?`,
		StateReady, now, storyID, StateReady)
	if err != nil {
		return fmt.Errorf("publish story: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("publish story: %w", err)
	}
	if affected == 0 {
		var exists int
		if err := l.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM stories WHERE id = ?", storyID).Scan(&exists); err != nil {
			return fmt.Errorf("publish story: %w", err)
		}
		if exists == 0 {
			return fmt.Errorf("publish story %s: %w", storyID, ErrNotFound)
		}
	}
	return nil
}

// ListReady returns all ready stories, newest first.
func (l *Library) ListReady(ctx context.Context) ([]Story, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, title, story_context, style, total_pages, state, created_at, published_at
         FROM stories WHERE state = ? ORDER BY created_at DESC`, StateReady)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// GetStory returns one story, draft or ready, with its pages in order.
func (l *Library) GetStory(ctx context.Context, storyID string) (*Story, []StoryPage, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT id, title, story_context, style, total_pages, state, created_at, published_at
         FROM stories WHERE id = ?`, storyID)
	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("story %s: %w", storyID, ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT story_id, position, image_path, media_type, caption_primary, caption_secondary, is_cover
         FROM pages WHERE story_id = ? ORDER BY position`, storyID)
	if err != nil {
		return nil, nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var pages []StoryPage
	for rows.Next() {
		var page StoryPage
		var isCover int
		if err := rows.Scan(&page.StoryID, &page.Position, &page.ImagePath, &page.MediaType,
			&page.CaptionPrimary, &page.CaptionSecondary, &isCover); err != nil {
			return nil, nil, fmt.Errorf("scan page: %w", err)
		}
		page.IsCover = isCover != 0
		pages = append(pages, page)
	}
	return &story, pages, rows.Err()
}

// PageImage returns the stored image bytes and media type for one page.
func (l *Library) PageImage(ctx context.Context, storyID string, position int) ([]byte, string, error) {
	var imagePath, mediaType string
	err := l.db.QueryRowContext(ctx,
		"SELECT image_path, media_type FROM pages WHERE story_id = ? AND position = ?",
		storyID, position).Scan(&imagePath, &mediaType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("story %s page %d: %w", storyID, position, ErrNotFound)
	}
	if err != nil {
		return nil, "", fmt.Errorf("look up page: %w", err)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, "", fmt.Errorf("read page image: %w", err)
	}
	return data, mediaType, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(row rowScanner) (Story, error) {
	var story Story
	var createdAt string
	var publishedAt sql.NullString
	err := row.Scan(&story.ID, &story.Title, &story.StoryContext, &story.Style,
		&story.TotalPages, &story.State, &createdAt, &publishedAt)
	if err != nil {
		return story, err
	}
	story.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	if publishedAt.Valid {
		t, err := time.Parse(time.RFC3339Nano, publishedAt.String)
		if err == nil {
			story.PublishedAt = &t
		}
	}
	return story, nil
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
