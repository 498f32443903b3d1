package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"

	"github.com/gen2brain/go-fitz"
	"github.com/spherical/invoice-extractor/internal/domain"
)

// baseDPI is the PDF user-space resolution; scale multiplies it.
const baseDPI = 72.0

const (
	DefaultMaxPages = 5
	DefaultScale    = 2.0
)

// Document is the subset of a rendering backend the rasterizer needs.
type Document interface {
	NumPage() int
	ImageDPI(pageNumber int, dpi float64) (*image.RGBA, error)
	Close() error
}

// Opener opens a document from a path on disk.
type Opener func(path string) (Document, error)

// FitzOpener opens documents with MuPDF through go-fitz.
func FitzOpener(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Rasterizer renders a bounded prefix of PDF pages to base64 PNG strings.
type Rasterizer struct {
	open     Opener
	maxPages int
	scale    float64
}

// Option configures a Rasterizer.
type Option func(*Rasterizer)

// WithOpener replaces the go-fitz backend.
func WithOpener(open Opener) Option {
	return func(r *Rasterizer) { r.open = open }
}

// WithMaxPages caps the number of leading pages rendered.
func WithMaxPages(n int) Option {
	return func(r *Rasterizer) {
		if n > 0 {
			r.maxPages = n
		}
	}
}

// WithScale sets the linear oversampling factor.
func WithScale(scale float64) Option {
	return func(r *Rasterizer) {
		if scale > 0 {
			r.scale = scale
		}
	}
}

// NewRasterizer creates a rasterizer using go-fitz, 5 pages and 2x scale unless overridden.
func NewRasterizer(opts ...Option) *Rasterizer {
	r := &Rasterizer{
		open:     FitzOpener,
		maxPages: DefaultMaxPages,
		scale:    DefaultScale,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// MaxPages returns the configured page cap.
func (r *Rasterizer) MaxPages() int {
	return r.maxPages
}

// Rasterize opens pdfPath and renders pages [0, min(total, maxPages)) in order.
// The first failing page aborts the whole call.
func (r *Rasterizer) Rasterize(ctx context.Context, pdfPath string) (*domain.RenderedDocument, error) {
	doc, err := r.open(pdfPath)
	if err != nil {
		return nil, domain.ConversionError("failed to open PDF", err)
	}
	defer doc.Close()

	total := doc.NumPage()
	if total <= 0 {
		return nil, domain.ValidationError("PDF has no pages", nil)
	}

	count := min(total, r.maxPages)
	dpi := baseDPI * r.scale
	pages := make([]domain.PageImage, 0, count)

	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := r.renderPage(doc, i, dpi)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}

	return &domain.RenderedDocument{
		TotalPages: total,
		Pages:      pages,
	}, nil
}

func (r *Rasterizer) renderPage(doc Document, index int, dpi float64) (domain.PageImage, error) {
	img, err := doc.ImageDPI(index, dpi)
	if err != nil {
		return domain.PageImage{}, domain.ConversionError(fmt.Sprintf("failed to render page %d", index+1), err)
	}

	encoded, err := EncodePNGBase64(img)
	if err != nil {
		return domain.PageImage{}, domain.ConversionError(fmt.Sprintf("failed to encode page %d as PNG", index+1), err)
	}

	bounds := img.Bounds()
	return domain.PageImage{
		PageNumber: index + 1,
		Width:      bounds.Dx(),
		Height:     bounds.Dy(),
		Base64PNG:  encoded,
	}, nil
}

// EncodePNGBase64 encodes img as PNG and returns the standard base64 text.
func EncodePNGBase64(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
