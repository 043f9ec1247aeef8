// Package finalize commits a reviewed session to the story library in three
// phases: create the story, upload each completed page, mark the story ready.
package finalize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storybooth/storybooth/internal/models"
)

// StoryMeta is the session-level metadata the persisted story is created with.
type StoryMeta struct {
	Title        string
	StoryContext string
	Style        string
	TotalPages   int
}

// Page is one uploaded storybook page.
type Page struct {
	Position         int
	Image            []byte
	MediaType        string
	CaptionPrimary   string
	CaptionSecondary string
	IsCover          bool
}

// Publisher is the persisted-story backend.
type Publisher interface {
	CreateStory(ctx context.Context, meta StoryMeta) (string, error)
	AddPage(ctx context.Context, storyID string, page Page) error
	PublishStory(ctx context.Context, storyID string) error
}

// CommitError reports a story whose pages uploaded but whose final commit
// failed. The story exists in draft state; the commit can be retried alone.
type CommitError struct {
	StoryID string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("story %s uploaded but not committed: %v", e.StoryID, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

// Result summarizes a finalize run.
type Result struct {
	StoryID       string `json:"story_id"`
	PagesUploaded int    `json:"pages_uploaded"`
	PagesFailed   int    `json:"pages_failed"`
}

type Finalizer struct {
	publisher Publisher
}

func New(publisher Publisher) *Finalizer {
	return &Finalizer{publisher: publisher}
}

// Run finalizes the session's completed items in session order. A create
// failure aborts with no side effects. Page upload failures are logged and
// skipped, never aborting the loop; the commit is issued exactly once after
// every upload has been attempted. A commit failure is returned as a
// *CommitError and the session keeps the story ID for a commit-only retry.
func (f *Finalizer) Run(ctx context.Context, session *models.StorySession) (*Result, error) {
	if err := session.SetStage(models.StageFinalizing); err != nil {
		return nil, err
	}

	completed := session.CompletedItems()
	if len(completed) == 0 {
		_ = session.SetStage(models.StageReview)
		return nil, errors.New("no completed pages to finalize")
	}

	storyID, err := f.publisher.CreateStory(ctx, StoryMeta{
		Title:        session.Title,
		StoryContext: session.StoryContext,
		Style:        session.IllustrationStyle,
		TotalPages:   len(completed),
	})
	if err != nil {
		_ = session.SetStage(models.StageReview)
		return nil, fmt.Errorf("create story: %w", err)
	}
	session.ContainerID = storyID

	result := &Result{StoryID: storyID}
	for i, item := range completed {
		page := Page{
			Position:         i + 1,
			Image:            item.Illustration.Data,
			MediaType:        item.Illustration.MediaType,
			CaptionPrimary:   item.CaptionPrimary,
			CaptionSecondary: item.CaptionSecondary,
			IsCover:          i == 0,
		}
		if err := f.publisher.AddPage(ctx, storyID, page); err != nil {
			// Best effort: a lost page must not cost the rest of the story.
			slog.Error("Page upload failed", "story_id", storyID, "item_id", item.ID, "position", page.Position, "error", err)
			result.PagesFailed++
			continue
		}
		result.PagesUploaded++
	}

	if err := f.publisher.PublishStory(ctx, storyID); err != nil {
		_ = session.SetStage(models.StageReview)
		return result, &CommitError{StoryID: storyID, Err: err}
	}

	slog.Info("Story finalized",
		"story_id", storyID, "pages", result.PagesUploaded, "failed", result.PagesFailed)
	return result, nil
}

// RetryCommit re-issues only the commit for a session whose uploads already
// happened.
func (f *Finalizer) RetryCommit(ctx context.Context, session *models.StorySession) error {
	if session.ContainerID == "" {
		return errors.New("session has no uploaded story to commit")
	}
	if err := f.publisher.PublishStory(ctx, session.ContainerID); err != nil {
		return &CommitError{StoryID: session.ContainerID, Err: err}
	}
	slog.Info("Story commit retried", "story_id", session.ContainerID)
	return nil
}
