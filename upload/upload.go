// Package upload publishes clipped article images to the archive API and
// returns their public URLs.
package upload

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config holds uploader configuration.
type Config struct {
	// Endpoint is the article upload API URL. Required.
	Endpoint string

	// HTTPClient overrides the default HTTP client.
	HTTPClient *http.Client
}

// Validate checks uploader configuration.
func (c Config) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("upload: Endpoint is required")
	}
	return nil
}

// Client posts article images to the archive API.
type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates an uploader.
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{config: config, httpClient: httpClient}, nil
}

type uploadRequest struct {
	Image    string `json:"image"`
	IsBase64 bool   `json:"is_base64"`
	Filename string `json:"filename"`
}

type uploadResponse struct {
	PublicURL string `json:"public_url"`
}

// Upload posts an encoded image under the given filename and returns the
// public URL the API assigned to it.
func (c *Client) Upload(ctx context.Context, imageData []byte, filename string) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("upload: empty image")
	}
	if filename == "" {
		return "", fmt.Errorf("upload: filename is required")
	}

	body, err := json.Marshal(uploadRequest{
		Image:    base64.StdEncoding.EncodeToString(imageData),
		IsBase64: true,
		Filename: filename,
	})
	if err != nil {
		return "", fmt.Errorf("upload: encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("upload: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("upload: reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload: API returned %d for %s", resp.StatusCode, filename)
	}

	var parsed uploadResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("upload: decoding response: %w", err)
	}
	if parsed.PublicURL == "" {
		return "", fmt.Errorf("upload: API response carried no public_url")
	}
	return parsed.PublicURL, nil
}
