package providers

import (
	"context"
)

// IllustrationRequest carries one encoded photo plus the session-level
// parameters every transformation call receives.
type IllustrationRequest struct {
	Image        []byte
	StoryContext string
	Style        string

	// Index/Total locate this photo in the batch so the provider can keep
	// the narrative coherent across pages.
	Index int
	Total int
}

// IllustrationResult is the stylized page image and its caption.
type IllustrationResult struct {
	Image     []byte
	MediaType string
	Caption   string
}

// Line pairs a transient batch position with a caption text. Positions are
// 1-based and are not item identity.
type Line struct {
	Position int    `json:"position"`
	Text     string `json:"text"`
}

// TranslationRequest is a single batch translation call.
type TranslationRequest struct {
	SourceLang string
	TargetLang string
	Lines      []Line
}

// Provider defines the interface for an illustration/translation backend.
type Provider interface {
	Illustrate(ctx context.Context, req IllustrationRequest) (IllustrationResult, error)
	TranslateBatch(ctx context.Context, req TranslationRequest) ([]Line, error)
}
