// Package transform drives each session item through the external
// illustration call, serialized and paced, isolating per-item failure.
package transform

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/storybooth/storybooth/internal/encode"
	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/providers"
)

// Orchestrator runs the transformation batch for one session at a time.
type Orchestrator struct {
	provider providers.Provider
	runner   *serialRunner
}

func New(provider providers.Provider, pace time.Duration) *Orchestrator {
	return &Orchestrator{
		provider: provider,
		runner:   newSerialRunner(pace),
	}
}

// Run processes every non-completed item in session order, one call at a
// time. A failed item is marked and skipped; the batch always runs to the
// end. The session moves to review if at least one item completed, and back
// to upload with an error if none did.
func (o *Orchestrator) Run(ctx context.Context, session *models.StorySession) error {
	if err := session.SetStage(models.StageTransforming); err != nil {
		return err
	}

	// Completed items keep their illustrations; re-running the batch only
	// retries the rest.
	pending := make([]int, 0, len(session.Items))
	for i, item := range session.Items {
		if item.Status != models.StatusCompleted {
			pending = append(pending, i)
		}
	}

	total := len(session.Items)
	o.runner.run(pending, func(i int) {
		o.transformItem(ctx, session, i, total)
	})

	completed := len(session.CompletedItems())
	if completed == 0 {
		if err := session.SetStage(models.StageUpload); err != nil {
			return err
		}
		return fmt.Errorf("no photos could be transformed (%d attempted)", len(pending))
	}

	slog.Info("Transformation batch finished",
		"session_id", session.ID, "completed", completed, "failed", total-completed)
	return session.SetStage(models.StageReview)
}

func (o *Orchestrator) transformItem(ctx context.Context, session *models.StorySession, i, total int) {
	item := session.Items[i]
	item.Status = models.StatusTransforming
	item.ErrorDetail = ""

	if item.EncodedPayload == nil {
		payload, err := encode.Encode(item.SourceData)
		if err != nil {
			o.failItem(item, fmt.Errorf("encode photo: %w", err))
			return
		}
		item.EncodedPayload = payload
	}

	result, err := o.provider.Illustrate(ctx, providers.IllustrationRequest{
		Image:        item.EncodedPayload,
		StoryContext: session.StoryContext,
		Style:        session.IllustrationStyle,
		Index:        i,
		Total:        total,
	})
	if err != nil {
		o.failItem(item, err)
		return
	}

	item.Illustration = &models.Illustration{Data: result.Image, MediaType: result.MediaType}
	item.CaptionPrimary = result.Caption
	item.Status = models.StatusCompleted
	slog.Info("Photo transformed", "item_id", item.ID, "position", i)
}

func (o *Orchestrator) failItem(item *models.PhotoItem, err error) {
	item.Status = models.StatusError
	item.ErrorDetail = err.Error()
	slog.Error("Photo transformation failed", "item_id", item.ID, "error", err)
}
