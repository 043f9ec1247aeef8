package translate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/providers"
)

type fakeTranslator struct {
	calls     int
	lastReq   providers.TranslationRequest
	responses []providers.Line
	err       error
}

func (f *fakeTranslator) Illustrate(context.Context, providers.IllustrationRequest) (providers.IllustrationResult, error) {
	return providers.IllustrationResult{}, errors.New("not implemented")
}

func (f *fakeTranslator) TranslateBatch(_ context.Context, req providers.TranslationRequest) ([]providers.Line, error) {
	f.calls++
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.responses != nil {
		return f.responses, nil
	}
	out := make([]providers.Line, len(req.Lines))
	for i, line := range req.Lines {
		out[i] = providers.Line{Position: line.Position, Text: "[es] " + line.Text}
	}
	return out, nil
}

func reviewSession() *models.StorySession {
	return &models.StorySession{
		ID:    "s1",
		Stage: models.StageReview,
		Items: []*models.PhotoItem{
			{ID: "a", Status: models.StatusCompleted, CaptionPrimary: "The fox wakes up."},
			{ID: "b", Status: models.StatusError, CaptionPrimary: "never translated"},
			{ID: "c", Status: models.StatusCompleted, CaptionPrimary: "The fox runs."},
			{ID: "d", Status: models.StatusCompleted, CaptionPrimary: "The fox sleeps.", CaptionSecondary: "El zorro duerme."},
		},
	}
}

func TestRunFillsMissingSecondaryCaptions(t *testing.T) {
	provider := &fakeTranslator{}
	tr := New(provider, "English", "Spanish")
	session := reviewSession()

	if err := tr.Run(context.Background(), session, PrimaryToSecondary); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if session.Stage != models.StageReview {
		t.Errorf("stage = %s, want review", session.Stage)
	}
	if provider.calls != 1 {
		t.Fatalf("provider called %d times, want 1 batch call", provider.calls)
	}
	// Only the two completed items missing the target field are submitted.
	if len(provider.lastReq.Lines) != 2 {
		t.Fatalf("submitted %d lines, want 2", len(provider.lastReq.Lines))
	}
	if provider.lastReq.SourceLang != "English" || provider.lastReq.TargetLang != "Spanish" {
		t.Errorf("languages = %s -> %s", provider.lastReq.SourceLang, provider.lastReq.TargetLang)
	}

	if got := session.Items[0].CaptionSecondary; !strings.HasPrefix(got, "[es] ") {
		t.Errorf("item a secondary = %q", got)
	}
	if got := session.Items[2].CaptionSecondary; !strings.HasPrefix(got, "[es] ") {
		t.Errorf("item c secondary = %q", got)
	}
	// Errored item and pre-filled item are untouched.
	if session.Items[1].CaptionSecondary != "" {
		t.Error("errored item received a translation")
	}
	if session.Items[3].CaptionSecondary != "El zorro duerme." {
		t.Errorf("pre-filled caption overwritten: %q", session.Items[3].CaptionSecondary)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	provider := &fakeTranslator{}
	tr := New(provider, "English", "Spanish")
	session := reviewSession()

	if err := tr.Run(context.Background(), session, PrimaryToSecondary); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first := []string{session.Items[0].CaptionSecondary, session.Items[2].CaptionSecondary}

	if err := tr.Run(context.Background(), session, PrimaryToSecondary); err != nil {
		t.Fatalf("second Run: %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider called %d times, second run should make zero calls", provider.calls)
	}
	if session.Items[0].CaptionSecondary != first[0] || session.Items[2].CaptionSecondary != first[1] {
		t.Error("captions changed on idempotent re-run")
	}
	if session.Stage != models.StageReview {
		t.Errorf("stage = %s, want review", session.Stage)
	}
}

func TestRunSkipsItemsAlreadyHoldingTarget(t *testing.T) {
	provider := &fakeTranslator{}
	tr := New(provider, "English", "Spanish")
	session := &models.StorySession{
		ID:    "s1",
		Stage: models.StageReview,
		Items: []*models.PhotoItem{
			{ID: "a", Status: models.StatusCompleted, CaptionPrimary: "Already here.", CaptionSecondary: "Ya está."},
			{ID: "b", Status: models.StatusCompleted, CaptionPrimary: "Also here.", CaptionSecondary: "También."},
		},
	}

	if err := tr.Run(context.Background(), session, SecondaryToPrimary); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if provider.calls != 0 {
		t.Errorf("provider called %d times, want 0 when all targets are filled", provider.calls)
	}
	if session.Items[0].CaptionPrimary != "Already here." || session.Items[1].CaptionPrimary != "Also here." {
		t.Error("existing primary captions changed")
	}
}

func TestRunBatchFailureLeavesCaptionsUntouched(t *testing.T) {
	provider := &fakeTranslator{err: errors.New("translation service down")}
	tr := New(provider, "English", "Spanish")
	session := reviewSession()

	err := tr.Run(context.Background(), session, PrimaryToSecondary)
	if err == nil {
		t.Fatal("expected error from failed batch call")
	}
	if session.Stage != models.StageReview {
		t.Errorf("stage = %s, want review after failure", session.Stage)
	}
	if session.Items[0].CaptionSecondary != "" || session.Items[2].CaptionSecondary != "" {
		t.Error("captions modified despite batch failure")
	}
	if session.Items[3].CaptionSecondary != "El zorro duerme." {
		t.Error("existing caption lost on batch failure")
	}
}

func TestRunIgnoresUnknownPositions(t *testing.T) {
	provider := &fakeTranslator{responses: []providers.Line{
		{Position: 1, Text: "uno"},
		{Position: 99, Text: "stray"},
	}}
	tr := New(provider, "English", "Spanish")
	session := &models.StorySession{
		ID:    "s1",
		Stage: models.StageReview,
		Items: []*models.PhotoItem{
			{ID: "a", Status: models.StatusCompleted, CaptionPrimary: "One."},
		},
	}

	if err := tr.Run(context.Background(), session, PrimaryToSecondary); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if session.Items[0].CaptionSecondary != "uno" {
		t.Errorf("item a secondary = %q, want uno", session.Items[0].CaptionSecondary)
	}
}

func TestParseDirection(t *testing.T) {
	if _, err := ParseDirection("primary_to_secondary"); err != nil {
		t.Errorf("valid direction rejected: %v", err)
	}
	if _, err := ParseDirection("sideways"); err == nil {
		t.Error("invalid direction accepted")
	}
}
