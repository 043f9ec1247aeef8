package ingest

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// FetchURL downloads a photo so it can flow through the same validation as a
// direct upload. The size cap is enforced while reading.
func FetchURL(imageURL string) (File, error) {
	resp, err := fetchClient.Get(imageURL)
	if err != nil {
		return File{}, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return File{}, fmt.Errorf("download image: HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFileSize+1))
	if err != nil {
		return File{}, fmt.Errorf("read image data: %w", err)
	}

	parts := strings.Split(strings.TrimSuffix(imageURL, "/"), "/")
	name := parts[len(parts)-1]
	if name == "" {
		name = "image.jpg"
	}

	return File{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
