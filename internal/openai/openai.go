// Package openai implements the illustration and translation provider against
// the OpenAI REST API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"

	"github.com/storybooth/storybooth/internal/providers"
)

const apiBase = "https://api.openai.com/v1"

// OpenAI is a provider backed by the OpenAI API.
type OpenAI struct {
	// ImageModel drives images/edits; ChatModel handles captions and translation.
	ImageModel string
	ChatModel  string

	client *http.Client
}

// New returns a new OpenAI provider.
func New(imageModel, chatModel string) *OpenAI {
	return &OpenAI{
		ImageModel: imageModel,
		ChatModel:  chatModel,
		client:     &http.Client{},
	}
}

func apiKey() (string, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return "", fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	return key, nil
}

// Illustrate restyles the photo through the images API, then asks the chat
// model for a caption. Two calls, both required for a completed item.
func (o *OpenAI) Illustrate(ctx context.Context, req providers.IllustrationRequest) (providers.IllustrationResult, error) {
	var result providers.IllustrationResult

	image, err := o.editImage(ctx, req)
	if err != nil {
		return result, err
	}

	caption, err := o.captionImage(ctx, req)
	if err != nil {
		return result, err
	}

	result.Image = image
	result.MediaType = "image/png"
	result.Caption = caption
	return result, nil
}

func (o *OpenAI) editImage(ctx context.Context, req providers.IllustrationRequest) ([]byte, error) {
	key, err := apiKey()
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("image", "photo.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	if _, err := part.Write(req.Image); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}
	_ = writer.WriteField("model", o.ImageModel)
	_ = writer.WriteField("prompt", fmt.Sprintf(
		"Redraw this photo as a storybook illustration in a %s style. Story context: %s. This is page %d of %d; keep characters consistent.",
		req.Style, req.StoryContext, req.Index+1, req.Total))
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build multipart request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", apiBase+"/images/edits", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+key)

	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(respBody))
	}

	var response struct {
		Data []struct {
			B64JSON string `json:"b64_json"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(response.Data) == 0 {
		return nil, fmt.Errorf("no images returned from OpenAI")
	}

	image, err := base64.StdEncoding.DecodeString(response.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image data: %w", err)
	}
	return image, nil
}

func (o *OpenAI) captionImage(ctx context.Context, req providers.IllustrationRequest) (string, error) {
	prompt := fmt.Sprintf(
		"Write one short storybook caption sentence for this photo. Story context: %s. This is page %d of %d. Respond with the caption only.",
		req.StoryContext, req.Index+1, req.Total)

	content := []map[string]any{
		{"type": "text", "text": prompt},
		{"type": "image_url", "image_url": map[string]string{
			"url": "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(req.Image),
		}},
	}

	text, err := o.chat(ctx, content, 0.7)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// TranslateBatch translates all lines in one chat completion call.
func (o *OpenAI) TranslateBatch(ctx context.Context, req providers.TranslationRequest) ([]providers.Line, error) {
	if len(req.Lines) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(req.Lines)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal caption lines: %w", err)
	}
	prompt := fmt.Sprintf(`Translate the following storybook captions from %s to %s.

Input is a JSON array of {"position", "text"} objects:
%s

Respond with ONLY a JSON array of the same shape, same positions, with each "text" translated.`,
		req.SourceLang, req.TargetLang, payload)

	content := []map[string]any{{"type": "text", "text": prompt}}
	text, err := o.chat(ctx, content, 0.2)
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	var lines []providers.Line
	if err := json.Unmarshal([]byte(text), &lines); err != nil {
		return nil, fmt.Errorf("failed to parse translation response: %w", err)
	}
	return lines, nil
}

func (o *OpenAI) chat(ctx context.Context, content []map[string]any, temperature float64) (string, error) {
	key, err := apiKey()
	if err != nil {
		return "", err
	}

	requestBody, err := json.Marshal(map[string]any{
		"model": o.ChatModel,
		"messages": []map[string]any{
			{"role": "user", "content": content},
		},
		"temperature": temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", apiBase+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}
	return response.Choices[0].Message.Content, nil
}
