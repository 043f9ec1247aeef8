// Package gemini implements the illustration and translation provider on top
// of Google Gemini.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/storybooth/storybooth/internal/providers"
)

// Gemini is a provider backed by Google Gemini models.
type Gemini struct {
	// ImageModel must be an image-output model; TextModel handles translation.
	ImageModel string
	TextModel  string
}

// New returns a new Gemini provider.
func New(imageModel, textModel string) *Gemini {
	return &Gemini{ImageModel: imageModel, TextModel: textModel}
}

func newClient(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	return client, nil
}

// Illustrate sends one encoded photo to the image model and returns the
// stylized page plus its caption.
func (g *Gemini) Illustrate(ctx context.Context, req providers.IllustrationRequest) (providers.IllustrationResult, error) {
	var result providers.IllustrationResult

	client, err := newClient(ctx)
	if err != nil {
		return result, err
	}
	defer client.Close()

	model := client.GenerativeModel(g.ImageModel)

	resp, err := model.GenerateContent(ctx,
		genai.ImageData("jpeg", req.Image),
		genai.Text(illustrationPrompt(req)),
	)
	if err != nil {
		return result, fmt.Errorf("failed to generate illustration: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return result, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return result, fmt.Errorf("empty content returned from Gemini")
	}

	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Blob:
			if result.Image == nil {
				result.Image = p.Data
				result.MediaType = p.MIMEType
			}
		case genai.Text:
			result.Caption += string(p)
		}
	}

	if result.Image == nil {
		return result, fmt.Errorf("no image returned from Gemini")
	}
	result.Caption = strings.TrimSpace(result.Caption)
	return result, nil
}

// TranslateBatch translates all lines in one call and returns them keyed by
// their request positions.
func (g *Gemini) TranslateBatch(ctx context.Context, req providers.TranslationRequest) ([]providers.Line, error) {
	if len(req.Lines) == 0 {
		return nil, nil
	}

	client, err := newClient(ctx)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	model := client.GenerativeModel(g.TextModel)
	model.SetTemperature(0.2)

	resp, err := model.GenerateContent(ctx, genai.Text(translationPrompt(req)))
	if err != nil {
		return nil, fmt.Errorf("failed to translate captions: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	var lines []providers.Line
	if err := json.Unmarshal([]byte(stripFences(string(txt))), &lines); err != nil {
		return nil, fmt.Errorf("failed to parse translation response: %w", err)
	}
	return lines, nil
}

func illustrationPrompt(req providers.IllustrationRequest) string {
	return fmt.Sprintf(`Transform the attached photo into a storybook illustration.

Story context: %s
Illustration style: %s
This is page %d of %d; keep characters and palette consistent across pages.

Return the illustrated image, followed by a single short caption sentence for
this page that fits the story context. Do not add any other text.`,
		req.StoryContext, req.Style, req.Index+1, req.Total)
}

func translationPrompt(req providers.TranslationRequest) string {
	payload, _ := json.Marshal(req.Lines)
	return fmt.Sprintf(`Translate the following storybook captions from %s to %s.

Input is a JSON array of {"position", "text"} objects:
%s

Respond with ONLY a JSON array of the same shape, same positions, with each
"text" translated. Keep the tone suitable for a children's storybook.`,
		req.SourceLang, req.TargetLang, payload)
}

// stripFences removes a markdown code fence if the model wrapped its JSON in one.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
