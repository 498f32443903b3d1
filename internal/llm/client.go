package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spherical/invoice-extractor/internal/domain"
)

const (
	defaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1500
	defaultDetail    = "high"
)

// Client sends rasterized invoice pages to a chat-completions endpoint.
type Client struct {
	apiKey     string
	model      string
	endpoint   string
	maxTokens  int
	detail     string
	httpClient *http.Client
}

// Config holds client settings. Zero values fall back to defaults.
type Config struct {
	APIKey    string
	Model     string
	Endpoint  string
	MaxTokens int
	Detail    string
	// Timeout of zero means no client-side deadline.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Message represents a chat message. Content is a string for the system
// message and a []ContentPart for the user message.
type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// ContentPart represents a part of message content (text or image)
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL represents an image URL in the message
type ImageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

// ResponseFormat asks the model for a particular output shape.
type ResponseFormat struct {
	Type string `json:"type"`
}

// Request represents the API request structure
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Response represents the API response structure
type Response struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
}

// Choice represents a single completion choice
type Choice struct {
	Message      ResponseMessage `json:"message"`
	FinishReason string          `json:"finish_reason"`
}

// ResponseMessage is the assistant message inside a choice.
type ResponseMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// StatusError is returned when the endpoint answers with a non-200 status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error from OpenAI API: %d - %s", e.StatusCode, e.Body)
}

// NewClient creates a new LLM client
func NewClient(cfg Config) *Client {
	c := &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		endpoint:   cfg.Endpoint,
		maxTokens:  cfg.MaxTokens,
		detail:     cfg.Detail,
		httpClient: cfg.HTTPClient,
	}
	if c.model == "" {
		c.model = defaultModel
	}
	if c.endpoint == "" {
		c.endpoint = defaultEndpoint
	}
	if c.maxTokens <= 0 {
		c.maxTokens = defaultMaxTokens
	}
	if c.detail == "" {
		c.detail = defaultDetail
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return c
}

// Model returns the model identifier sent with each request.
func (c *Client) Model() string {
	return c.model
}

// Extract sends all pages in one request and returns the model's reply text
// unchanged. A non-200 reply yields a *StatusError.
func (c *Client) Extract(ctx context.Context, images []domain.PageImage) (string, error) {
	if len(images) == 0 {
		return "", domain.ValidationError("at least one page image is required", nil)
	}

	body, err := json.Marshal(c.buildRequest(images))
	if err != nil {
		return "", domain.APIError("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", domain.APIError("failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", domain.APIError("failed to send request", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.APIError("failed to read response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var parsed Response
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", domain.APIError("failed to decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return "", domain.APIError("response contained no choices", nil)
	}

	return parsed.Choices[0].Message.Content, nil
}

// buildRequest constructs the chat request: system prompt, then one user
// message with the instruction followed by each page in order.
func (c *Client) buildRequest(images []domain.PageImage) *Request {
	parts := make([]ContentPart, 0, len(images)+1)
	parts = append(parts, ContentPart{
		Type: "text",
		Text: userInstruction,
	})
	for _, img := range images {
		parts = append(parts, ContentPart{
			Type: "image_url",
			ImageURL: &ImageURL{
				URL:    img.DataURL(),
				Detail: c.detail,
			},
		})
	}

	return &Request{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: buildSystemPrompt()},
			{Role: "user", Content: parts},
		},
		MaxTokens:      c.maxTokens,
		ResponseFormat: &ResponseFormat{Type: "json_object"},
	}
}
