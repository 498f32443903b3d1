// Package main provides the API router setup.
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spherical/invoice-extractor/cmd/invoice-extractor-api/handlers"
	"github.com/spherical/invoice-extractor/cmd/invoice-extractor-api/middleware"
	"github.com/spherical/invoice-extractor/internal/config"
	"github.com/spherical/invoice-extractor/internal/extract"
	"github.com/spherical/invoice-extractor/internal/llm"
	"github.com/spherical/invoice-extractor/internal/observability"
	"github.com/spherical/invoice-extractor/internal/pdf"
)

// NewPipeline wires the go-fitz rasterizer and the model client from cfg.
func NewPipeline(logger *observability.Logger, cfg *config.Config) *extract.Service {
	rasterizer := pdf.NewRasterizer(
		pdf.WithMaxPages(cfg.Render.MaxPages),
		pdf.WithScale(cfg.Render.Scale),
	)

	client := llm.NewClient(llm.Config{
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		Endpoint:  cfg.ChatCompletionsURL(),
		MaxTokens: cfg.LLM.MaxTokens,
		Detail:    cfg.LLM.Detail,
		Timeout:   cfg.LLM.Timeout,
	})

	return extract.NewService(rasterizer, client, logger)
}

// NewRouter creates the API router. tempDir holds uploads while they are
// processed; empty uses the system default.
func NewRouter(logger *observability.Logger, cfg *config.Config, pipeline handlers.Pipeline, tempDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	healthHandler := handlers.NewHealthHandler(cfg.MissingRequired)
	uploadHandler := handlers.NewUploadHandler(logger, pipeline, tempDir, cfg.Server.MaxUploadBytes)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.Upload)
	})

	return r
}
