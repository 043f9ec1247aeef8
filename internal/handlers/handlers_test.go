package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/storybooth/storybooth/internal/config"
	"github.com/storybooth/storybooth/internal/library"
	"github.com/storybooth/storybooth/internal/models"
	"github.com/storybooth/storybooth/internal/providers"
)

type stubProvider struct{}

func (stubProvider) Illustrate(_ context.Context, req providers.IllustrationRequest) (providers.IllustrationResult, error) {
	return providers.IllustrationResult{
		Image:     []byte("illustrated"),
		MediaType: "image/png",
		Caption:   fmt.Sprintf("Page %d of the story.", req.Index+1),
	}, nil
}

func (stubProvider) TranslateBatch(_ context.Context, req providers.TranslationRequest) ([]providers.Line, error) {
	out := make([]providers.Line, len(req.Lines))
	for i, line := range req.Lines {
		out[i] = providers.Line{Position: line.Position, Text: "[es] " + line.Text}
	}
	return out, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.PaceDelay = 0

	lib, err := library.Open(cfg.DataDir)
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	t.Cleanup(func() { _ = lib.Close() })

	mux := http.NewServeMux()
	New(cfg, stubProvider{}, lib).Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func smallPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func uploadPhotos(t *testing.T, url string, count int) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for i := 0; i < count; i++ {
		part, err := writer.CreateFormFile("files", fmt.Sprintf("photo%d.png", i))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(smallPNG(t)); err != nil {
			t.Fatal(err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(url, writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp
}

func TestFullImportFlow(t *testing.T) {
	server := newTestServer(t)

	// Create a session.
	var session models.StorySession
	resp := postJSON(t, server.URL+"/api/sessions", map[string]string{
		"title":              "The Fox",
		"story_context":      "a fox explores the forest",
		"illustration_style": "watercolor",
	})
	decodeBody(t, resp, &session)
	if session.Stage != models.StageUpload {
		t.Fatalf("new session stage = %s", session.Stage)
	}
	base := server.URL + "/api/sessions/" + session.ID

	// Upload three photos.
	resp = uploadPhotos(t, base+"/photos", 3)
	var uploadResult struct {
		Accepted int `json:"accepted"`
	}
	decodeBody(t, resp, &uploadResult)
	if uploadResult.Accepted != 3 {
		t.Fatalf("accepted = %d, want 3", uploadResult.Accepted)
	}

	// Transform.
	resp = postJSON(t, base+"/transform", map[string]string{})
	var transformed models.StorySession
	decodeBody(t, resp, &transformed)
	if transformed.Stage != models.StageReview {
		t.Fatalf("stage after transform = %s, want review", transformed.Stage)
	}
	for _, item := range transformed.Items {
		if item.Status != models.StatusCompleted {
			t.Errorf("item %s status = %s", item.ID, item.Status)
		}
		if item.CaptionPrimary == "" {
			t.Errorf("item %s has no caption", item.ID)
		}
	}

	// Edit one caption.
	req, err := http.NewRequest(http.MethodPatch, base+"/photos/"+transformed.Items[0].ID,
		bytes.NewReader([]byte(`{"caption_primary":"Once upon a time."}`)))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	patchResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var edited models.PhotoItem
	decodeBody(t, patchResp, &edited)
	if edited.CaptionPrimary != "Once upon a time." {
		t.Errorf("caption = %q", edited.CaptionPrimary)
	}

	// Translate captions.
	resp = postJSON(t, base+"/translate", map[string]string{"direction": "primary_to_secondary"})
	var translated models.StorySession
	decodeBody(t, resp, &translated)
	for _, item := range translated.Items {
		if item.CaptionSecondary == "" {
			t.Errorf("item %s missing secondary caption", item.ID)
		}
	}

	// Finalize.
	resp = postJSON(t, base+"/finalize", map[string]string{})
	var result struct {
		StoryID       string `json:"story_id"`
		PagesUploaded int    `json:"pages_uploaded"`
	}
	decodeBody(t, resp, &result)
	if result.PagesUploaded != 3 || result.StoryID == "" {
		t.Fatalf("finalize result = %+v", result)
	}

	// The session is gone; the story is listed.
	getResp, err := http.Get(base)
	if err != nil {
		t.Fatal(err)
	}
	getResp.Body.Close()
	if getResp.StatusCode != http.StatusNotFound {
		t.Errorf("session still reachable after finalize: %d", getResp.StatusCode)
	}

	var stories []library.Story
	listResp, err := http.Get(server.URL + "/api/stories")
	if err != nil {
		t.Fatal(err)
	}
	decodeBody(t, listResp, &stories)
	if len(stories) != 1 || stories[0].ID != result.StoryID {
		t.Fatalf("stories = %+v", stories)
	}

	// Page image is served.
	pageResp, err := http.Get(server.URL + "/api/stories/" + result.StoryID + "/pages/1")
	if err != nil {
		t.Fatal(err)
	}
	defer pageResp.Body.Close()
	if pageResp.StatusCode != http.StatusOK {
		t.Errorf("page image status = %d", pageResp.StatusCode)
	}
}

func TestAddPhotosOutsideUploadStage(t *testing.T) {
	server := newTestServer(t)

	var session models.StorySession
	resp := postJSON(t, server.URL+"/api/sessions", map[string]string{"title": "T"})
	decodeBody(t, resp, &session)
	base := server.URL + "/api/sessions/" + session.ID

	uploadPhotos(t, base+"/photos", 1).Body.Close()
	postJSON(t, base+"/transform", map[string]string{}).Body.Close()

	// Session is now in review; uploads must be refused.
	resp = uploadPhotos(t, base+"/photos", 1)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("upload in review returned %d, want %d", resp.StatusCode, http.StatusConflict)
	}
}

func TestReorderEndpoint(t *testing.T) {
	server := newTestServer(t)

	var session models.StorySession
	resp := postJSON(t, server.URL+"/api/sessions", map[string]string{"title": "T"})
	decodeBody(t, resp, &session)
	base := server.URL + "/api/sessions/" + session.ID

	var uploadResult struct {
		Items []*models.PhotoItem `json:"items"`
	}
	decodeBody(t, uploadPhotos(t, base+"/photos", 3), &uploadResult)
	if len(uploadResult.Items) != 3 {
		t.Fatalf("items = %d", len(uploadResult.Items))
	}

	reversed := []string{uploadResult.Items[2].ID, uploadResult.Items[1].ID, uploadResult.Items[0].ID}
	body, _ := json.Marshal(map[string]any{"item_ids": reversed})
	req, err := http.NewRequest(http.MethodPut, base+"/order", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	putResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	var reordered models.StorySession
	decodeBody(t, putResp, &reordered)
	for i, id := range reversed {
		if reordered.Items[i].ID != id {
			t.Errorf("position %d = %s, want %s", i, reordered.Items[i].ID, id)
		}
	}
}

func TestUnknownSession(t *testing.T) {
	server := newTestServer(t)
	resp, err := http.Get(server.URL + "/api/sessions/nope")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
