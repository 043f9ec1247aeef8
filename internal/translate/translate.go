// Package translate fills the missing caption language on completed items via
// a single batch translation call.
package translate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/providers"
)

// Direction selects which caption field is the source and which is filled.
type Direction string

const (
	PrimaryToSecondary Direction = "primary_to_secondary"
	SecondaryToPrimary Direction = "secondary_to_primary"
)

// ParseDirection validates a user-supplied direction string.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case PrimaryToSecondary, SecondaryToPrimary:
		return Direction(s), nil
	}
	return "", fmt.Errorf("invalid direction %q (want %s or %s)", s, PrimaryToSecondary, SecondaryToPrimary)
}

// Translator batch-translates captions between the two session languages.
type Translator struct {
	provider          providers.Provider
	languagePrimary   string
	languageSecondary string
}

func New(provider providers.Provider, languagePrimary, languageSecondary string) *Translator {
	return &Translator{
		provider:          provider,
		languagePrimary:   languagePrimary,
		languageSecondary: languageSecondary,
	}
}

// Run translates the captions of completed items that are missing the target
// field. Items already holding the target caption are skipped, so re-running
// after a partial fill only closes the gaps. A failed batch call leaves every
// caption untouched.
//
// Positions in the batch request are transient 1-based numbers; a correlation
// map built before the call ties them back to item IDs, since items may have
// been removed or reordered since any earlier batch.
func (t *Translator) Run(ctx context.Context, session *models.StorySession, dir Direction) error {
	if err := session.SetStage(models.StageTranslating); err != nil {
		return err
	}

	sourceLang, targetLang := t.languagePrimary, t.languageSecondary
	if dir == SecondaryToPrimary {
		sourceLang, targetLang = t.languageSecondary, t.languagePrimary
	}

	byPosition := make(map[int]string)
	var lines []providers.Line
	for _, item := range session.CompletedItems() {
		source, target := captionPair(item, dir)
		if target != "" || source == "" {
			continue
		}
		position := len(lines) + 1
		byPosition[position] = item.ID
		lines = append(lines, providers.Line{Position: position, Text: source})
	}

	if len(lines) == 0 {
		return session.SetStage(models.StageReview)
	}

	results, err := t.provider.TranslateBatch(ctx, providers.TranslationRequest{
		SourceLang: sourceLang,
		TargetLang: targetLang,
		Lines:      lines,
	})
	if err != nil {
		// All-or-nothing: no caption changes on batch failure.
		if stageErr := session.SetStage(models.StageReview); stageErr != nil {
			return stageErr
		}
		return fmt.Errorf("translate captions: %w", err)
	}

	applied := 0
	for _, line := range results {
		itemID, ok := byPosition[line.Position]
		if !ok {
			slog.Warn("Translation response references unknown position",
				"session_id", session.ID, "position", line.Position)
			continue
		}
		item, _ := session.ItemByID(itemID)
		if item == nil {
			continue
		}
		setTarget(item, dir, line.Text)
		applied++
	}

	slog.Info("Captions translated",
		"session_id", session.ID, "requested", len(lines), "applied", applied, "target", targetLang)
	return session.SetStage(models.StageReview)
}

func captionPair(item *models.PhotoItem, dir Direction) (source, target string) {
	if dir == SecondaryToPrimary {
		return item.CaptionSecondary, item.CaptionPrimary
	}
	return item.CaptionPrimary, item.CaptionSecondary
}

func setTarget(item *models.PhotoItem, dir Direction, text string) {
	if dir == SecondaryToPrimary {
		item.CaptionPrimary = text
		return
	}
	item.CaptionSecondary = text
}
