// Package handlers provides HTTP handlers for the invoice extractor API.
package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every 4xx/5xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
