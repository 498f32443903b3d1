package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spherical/invoice-extractor/internal/extract"
	"github.com/spherical/invoice-extractor/internal/observability"
	"github.com/spherical/invoice-extractor/internal/pdf"
)

// FormField is the multipart field carrying the uploaded PDF.
const FormField = "files"

const (
	msgNoFilePart   = "No file part"
	msgNoSelected   = "No selected file"
	msgNotPDF       = "File must be a PDF"
	msgFileTooLarge = "File too large"
)

// Pipeline runs extraction for a PDF stored on disk.
type Pipeline interface {
	Process(ctx context.Context, pdfPath string) extract.Outcome
}

// UploadResponse is the success envelope for POST /api/upload.
type UploadResponse struct {
	Success bool            `json:"success"`
	Result  extract.Outcome `json:"result"`
}

// UploadHandler accepts an invoice upload and returns the extraction outcome.
type UploadHandler struct {
	logger   *observability.Logger
	pipeline Pipeline
	tempDir  string
	maxBytes int64
}

// NewUploadHandler creates a new upload handler. An empty tempDir uses the
// system default.
func NewUploadHandler(logger *observability.Logger, pipeline Pipeline, tempDir string, maxBytes int64) *UploadHandler {
	if logger == nil {
		logger = observability.Nop()
	}
	return &UploadHandler{
		logger:   logger.WithOperation("upload"),
		pipeline: pipeline,
		tempDir:  tempDir,
		maxBytes: maxBytes,
	}
}

// Upload handles POST /api/upload.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.logger.WithContext(ctx)

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}

	defer func() {
		if r.MultipartForm != nil {
			r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := h.formFile(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, msgFileTooLarge)
		case errors.Is(err, errEmptyFilename):
			writeError(w, http.StatusBadRequest, msgNoSelected)
		default:
			writeError(w, http.StatusBadRequest, msgNoFilePart)
		}
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, msgNoSelected)
		return
	}
	if !pdf.HasPDFExtension(header.Filename) {
		writeError(w, http.StatusBadRequest, msgNotPDF)
		return
	}

	tempPath, err := h.saveTemp(file)
	if tempPath != "" {
		defer removeTemp(logger, tempPath)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to store upload")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	logger.Info().
		Str("filename", header.Filename).
		Int64("size", header.Size).
		Msg("Processing upload")

	outcome := h.pipeline.Process(ctx, tempPath)
	if !outcome.OK() {
		logger.Warn().Str("result", outcome.Err).Msg("Extraction did not succeed")
	}

	writeJSON(w, http.StatusOK, UploadResponse{Success: true, Result: outcome})
}

var errEmptyFilename = errors.New("empty filename")

// formFile returns the uploaded part. A part sent with an empty filename is
// stored by mime/multipart as a plain value, so it is reported separately.
func (h *UploadHandler) formFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	maxMemory := int64(32 << 20)
	if h.maxBytes > 0 && h.maxBytes < maxMemory {
		maxMemory = h.maxBytes
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		return nil, nil, err
	}

	file, header, err := r.FormFile(FormField)
	if err == nil {
		return file, header, nil
	}
	if errors.Is(err, http.ErrMissingFile) {
		if _, ok := r.MultipartForm.Value[FormField]; ok {
			return nil, nil, errEmptyFilename
		}
	}
	return nil, nil, err
}

// saveTemp copies the upload to a fresh file in tempDir. The returned path is
// non-empty whenever a file was created, even on error, so callers can remove it.
func (h *UploadHandler) saveTemp(src io.Reader) (string, error) {
	dir := h.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "invoice-"+uuid.NewString()+pdf.Extension)

	dst, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return path, fmt.Errorf("write temp file: %w", err)
	}
	if err := dst.Close(); err != nil {
		return path, fmt.Errorf("close temp file: %w", err)
	}
	return path, nil
}

func removeTemp(logger *observability.Logger, path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Error().Err(err).Str("path", path).Msg("Failed to remove temp file")
	}
}
