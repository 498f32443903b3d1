package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spherical/invoice-extractor/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testImages(n int) []domain.PageImage {
	images := make([]domain.PageImage, n)
	for i := range images {
		images[i] = domain.PageImage{PageNumber: i + 1, Width: 10, Height: 10, Base64PNG: "cGFnZQ=="}
	}
	return images
}

func TestNewClient(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantModel string
	}{
		{
			name:      "default model",
			cfg:       Config{APIKey: "sk-test"},
			wantModel: defaultModel,
		},
		{
			name:      "custom model",
			cfg:       Config{APIKey: "sk-test", Model: "gpt-4o"},
			wantModel: "gpt-4o",
		},
		{
			name:      "empty api key still builds a client",
			cfg:       Config{},
			wantModel: defaultModel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewClient(tt.cfg)
			require.NotNil(t, client)
			assert.Equal(t, tt.wantModel, client.Model())
			assert.Equal(t, defaultEndpoint, client.endpoint)
			assert.Equal(t, defaultMaxTokens, client.maxTokens)
			assert.Equal(t, defaultDetail, client.detail)
		})
	}
}

func TestNewClient_Timeout(t *testing.T) {
	client := NewClient(Config{Timeout: 5 * time.Second})
	assert.Equal(t, 5*time.Second, client.httpClient.Timeout)

	client = NewClient(Config{})
	assert.Zero(t, client.httpClient.Timeout)
}

func TestBuildRequest(t *testing.T) {
	client := NewClient(Config{APIKey: "test-key"})

	req := client.buildRequest(testImages(3))

	assert.Equal(t, defaultModel, req.Model)
	assert.Equal(t, 1500, req.MaxTokens)
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, "json_object", req.ResponseFormat.Type)

	require.Len(t, req.Messages, 2)
	assert.Equal(t, "system", req.Messages[0].Role)
	assert.Equal(t, "user", req.Messages[1].Role)

	parts, ok := req.Messages[1].Content.([]ContentPart)
	require.True(t, ok)
	require.Len(t, parts, 4)
	assert.Equal(t, "text", parts[0].Type)
	assert.Equal(t, userInstruction, parts[0].Text)
	for _, p := range parts[1:] {
		assert.Equal(t, "image_url", p.Type)
		require.NotNil(t, p.ImageURL)
		assert.Equal(t, "data:image/png;base64,cGFnZQ==", p.ImageURL.URL)
		assert.Equal(t, "high", p.ImageURL.Detail)
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := buildSystemPrompt()

	require.NotEmpty(t, prompt)
	for _, field := range domain.InvoiceFields {
		assert.Contains(t, prompt, `"`+field+`"`)
	}
	assert.Len(t, domain.InvoiceFields, 9)
	assert.Contains(t, prompt, "null")
	assert.Contains(t, prompt, "YYYY-MM-DD")
}

func TestExtract_Success(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","choices":[{"message":{"role":"assistant","content":"{\"kunde_navn\":\"A\"}"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", Endpoint: srv.URL})
	text, err := client.Extract(context.Background(), testImages(2))
	require.NoError(t, err)
	assert.Equal(t, `{"kunde_navn":"A"}`, text)

	assert.Equal(t, "gpt-4o-mini", got["model"])
	assert.Equal(t, float64(1500), got["max_tokens"])
	assert.Equal(t, map[string]any{"type": "json_object"}, got["response_format"])
	messages := got["messages"].([]any)
	user := messages[1].(map[string]any)
	assert.Len(t, user["content"].([]any), 3)
}

func TestExtract_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"error":{"message":"rate limited"}}`)
	}))
	defer srv.Close()

	client := NewClient(Config{APIKey: "sk-test", Endpoint: srv.URL})
	_, err := client.Extract(context.Background(), testImages(1))
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, `Error from OpenAI API: 429 - {"error":{"message":"rate limited"}}`, err.Error())
}

func TestExtract_NoRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient(Config{Endpoint: srv.URL})
	_, err := client.Extract(context.Background(), testImages(1))
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExtract_EmptyImages(t *testing.T) {
	client := NewClient(Config{APIKey: "sk-test"})
	_, err := client.Extract(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeValidation))
}

func TestExtract_BadResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"no choices", `{"id":"x","choices":[]}`},
		{"not json", `<html>`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			client := NewClient(Config{Endpoint: srv.URL})
			_, err := client.Extract(context.Background(), testImages(1))
			require.Error(t, err)
			assert.True(t, domain.IsType(err, domain.ErrorTypeAPI))
		})
	}
}

func TestExtract_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(Config{Endpoint: url})
	_, err := client.Extract(context.Background(), testImages(1))
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeAPI))
	assert.True(t, strings.HasPrefix(err.Error(), "failed to send request"))
}
