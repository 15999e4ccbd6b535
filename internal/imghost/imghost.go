package imghost

// Package imghost uploads images to ImgBB and returns a public display URL.
// Character and environment art is hosted externally so room payloads stay
// small and the vision model can fetch images by URL.

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	apiKey     string
	uploadURL  string
	httpClient *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithUploadURL overrides the upload endpoint. Used by tests.
func WithUploadURL(u string) Option {
	return func(c *Client) { c.uploadURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func NewClient(apiKey, uploadURL string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		uploadURL:  uploadURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Upload sends raw image bytes to ImgBB as base64 form data and returns the
// hosted display URL.
func (c *Client) Upload(ctx context.Context, imageBytes []byte) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("imgbb api key not set")
	}

	var body strings.Builder
	w := multipart.NewWriter(&body)
	if err := w.WriteField("image", base64.StdEncoding.EncodeToString(imageBytes)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	endpoint := c.uploadURL + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(body.String()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("imgbb error: %d %s", resp.StatusCode, string(b))
	}

	var out struct {
		Data struct {
			DisplayURL string `json:"display_url"`
			URL        string `json:"url"`
		} `json:"data"`
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode imgbb response: %w", err)
	}
	if !out.Success || (out.Data.DisplayURL == "" && out.Data.URL == "") {
		return "", fmt.Errorf("imgbb upload rejected")
	}
	if out.Data.DisplayURL != "" {
		return out.Data.DisplayURL, nil
	}
	return out.Data.URL, nil
}
