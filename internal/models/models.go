package models

import (
	"fmt"
	"time"
)

// ItemStatus tracks one photo through the import pipeline.
type ItemStatus string

const (
	StatusPending      ItemStatus = "pending"
	StatusTransforming ItemStatus = "transforming"
	StatusCompleted    ItemStatus = "completed"
	StatusError        ItemStatus = "error"
)

// Stage is the coarse phase of a story session.
type Stage string

const (
	StageUpload       Stage = "upload"
	StageTransforming Stage = "transforming"
	StageReview       Stage = "review"
	StageTranslating  Stage = "translating"
	StageFinalizing   Stage = "finalizing"
)

// MaxItems caps the number of photos per session. Enforced at ingestion only.
const MaxItems = 15

// Illustration is the output of the external transformation call.
type Illustration struct {
	Data      []byte `json:"-"`
	MediaType string `json:"media_type"`
}

// PhotoItem represents one user-submitted photo and its derived artifacts.
type PhotoItem struct {
	ID         string `json:"id"`
	SourceName string `json:"source_name"`

	// SourceData holds the original file bytes; released when the item is removed.
	SourceData []byte `json:"-"`

	// PreviewPath/PreviewURL reference the saved original for display.
	// The file is deleted when the item or its session is removed.
	PreviewPath string `json:"-"`
	PreviewURL  string `json:"preview_url"`

	// EncodedPayload is the transmission-ready re-encoding of the source,
	// present only once the item has left pending.
	EncodedPayload []byte `json:"-"`

	Illustration     *Illustration `json:"illustration,omitempty"`
	CaptionPrimary   string        `json:"caption_primary,omitempty"`
	CaptionSecondary string        `json:"caption_secondary,omitempty"`

	Status      ItemStatus `json:"status"`
	ErrorDetail string     `json:"error_detail,omitempty"`
}

// StorySession is the in-progress batch import and its parameters.
type StorySession struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// StoryContext and IllustrationStyle are passed to every transformation call.
	StoryContext      string `json:"story_context"`
	IllustrationStyle string `json:"illustration_style"`

	// Items in session order; the item at position 0 is the cover.
	Items []*PhotoItem `json:"items"`

	Stage Stage `json:"stage"`

	// ContainerID is set once finalization has created the persisted story,
	// so a failed commit can be retried without re-uploading pages.
	ContainerID string `json:"container_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// legalTransitions enumerates the valid stage moves. Transforming may fall
// back to upload when every item failed; review may re-enter transforming so
// a batch re-run can retry failed items; finalizing falls back to review on
// create or commit failure.
var legalTransitions = map[Stage][]Stage{
	StageUpload:       {StageTransforming},
	StageTransforming: {StageReview, StageUpload},
	StageReview:       {StageTransforming, StageTranslating, StageFinalizing},
	StageTranslating:  {StageReview},
	StageFinalizing:   {StageReview},
}

// CanTransition reports whether moving from one stage to another is legal.
func CanTransition(from, to Stage) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStage validates and applies a stage transition.
func (s *StorySession) SetStage(to Stage) error {
	if !CanTransition(s.Stage, to) {
		return fmt.Errorf("illegal stage transition %s -> %s", s.Stage, to)
	}
	s.Stage = to
	return nil
}

// ItemByID returns the item with the given ID and its position, or nil and -1.
func (s *StorySession) ItemByID(id string) (*PhotoItem, int) {
	for i, item := range s.Items {
		if item.ID == id {
			return item, i
		}
	}
	return nil, -1
}

// CompletedItems returns the items with a stored illustration, in session order.
func (s *StorySession) CompletedItems() []*PhotoItem {
	completed := make([]*PhotoItem, 0, len(s.Items))
	for _, item := range s.Items {
		if item.Status == StatusCompleted {
			completed = append(completed, item)
		}
	}
	return completed
}

// RemoveItem removes the item with the given ID, preserving the order of the
// rest. It returns the removed item so the caller can release its preview.
func (s *StorySession) RemoveItem(id string) *PhotoItem {
	item, i := s.ItemByID(id)
	if item == nil {
		return nil
	}
	s.Items = append(s.Items[:i], s.Items[i+1:]...)
	return item
}

// Reorder rearranges items to match the given ID sequence. Every current item
// must appear exactly once; reordering changes position, never identity.
func (s *StorySession) Reorder(ids []string) error {
	if len(ids) != len(s.Items) {
		return fmt.Errorf("reorder lists %d items, session has %d", len(ids), len(s.Items))
	}
	reordered := make([]*PhotoItem, 0, len(s.Items))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("duplicate item id %s in reorder", id)
		}
		seen[id] = true
		item, _ := s.ItemByID(id)
		if item == nil {
			return fmt.Errorf("unknown item id %s in reorder", id)
		}
		reordered = append(reordered, item)
	}
	s.Items = reordered
	return nil
}
