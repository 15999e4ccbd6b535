package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/willemhelmet/prompt-pugalists/internal/constants"
)

// Client wraps the Mistral chat-completions API behind the resolution oracle
// contract: every battle-facing call returns a structurally complete result,
// falling back to deterministic placeholders on any upstream failure. Errors
// never propagate past this package for round resolution, initial choices or
// action suggestions.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client

	engineSystemPrompt       string
	characterEnhancePrompt   string
	environmentEnhancePrompt string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the upstream API base URL. Used by tests.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithEngineSystemPrompt overrides the built-in engine system prompt.
func WithEngineSystemPrompt(p string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(p); s != "" {
			c.engineSystemPrompt = s
		}
	}
}

// WithCharacterEnhancePrompt overrides the character enhancement prompt.
func WithCharacterEnhancePrompt(p string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(p); s != "" {
			c.characterEnhancePrompt = s
		}
	}
}

// WithEnvironmentEnhancePrompt overrides the environment enhancement prompt.
func WithEnvironmentEnhancePrompt(p string) Option {
	return func(c *Client) {
		if s := strings.TrimSpace(p); s != "" {
			c.environmentEnhancePrompt = s
		}
	}
}

// NewClient builds an oracle client for the given API key.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:                   apiKey,
		baseURL:                  constants.MistralBaseURL,
		httpClient:               &http.Client{Timeout: 60 * time.Second},
		engineSystemPrompt:       defaultEngineSystemPrompt,
		characterEnhancePrompt:   defaultCharacterEnhancePrompt,
		environmentEnhancePrompt: defaultEnvironmentEnhancePrompt,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// chatMessage content is either a plain string or, for vision calls, a list
// of typed parts.
type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format,omitempty"`
}

// chat performs one chat-completions call and returns the first choice's
// content. jsonObject requests strict JSON output from the model.
func (c *Client) chat(ctx context.Context, model string, messages []chatMessage, jsonObject bool, temperature float64, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("%s not set", constants.EnvMistralAPIKey)
	}

	reqBody := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}
	if jsonObject {
		reqBody.ResponseFormat = &struct {
			Type string `json:"type"`
		}{Type: "json_object"}
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+constants.MistralChatCompletionsPath, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set(constants.HeaderAuthorization, constants.BearerPrefix+c.apiKey)
	req.Header.Set(constants.HeaderContentType, constants.ContentTypeJSON)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("mistral error: %d %s", resp.StatusCode, string(body))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode mistral response: %w", err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty response from mistral")
	}
	return out.Choices[0].Message.Content, nil
}
