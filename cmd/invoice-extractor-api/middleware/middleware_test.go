package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spherical/invoice-extractor/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		origin     string
		method     string
		wantHeader string
		wantCode   int
	}{
		{"wildcard", []string{"*"}, "https://app.example", http.MethodGet, "https://app.example", http.StatusTeapot},
		{"listed", []string{"https://app.example"}, "https://app.example", http.MethodPost, "https://app.example", http.StatusTeapot},
		{"not listed", []string{"https://app.example"}, "https://evil.example", http.MethodGet, "", http.StatusTeapot},
		{"preflight", []string{"*"}, "https://app.example", http.MethodOptions, "https://app.example", http.StatusNoContent},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, "/api/upload", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()

			CORS(tc.allowed)(okHandler).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantCode, rec.Code)
			assert.Equal(t, tc.wantHeader, rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := observability.NewLogger(observability.LogConfig{Level: "info", Output: &buf})

	h := chimiddleware.RequestID(RequestLogger(logger)(okHandler))
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(chimiddleware.RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "abc-123", entry["request_id"])
	assert.Equal(t, "/health", entry["path"])
	assert.Equal(t, float64(http.StatusTeapot), entry["status"])
}
