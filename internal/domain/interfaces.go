package domain

import "context"

// Rasterizer turns the leading pages of a PDF into encoded page images.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdfPath string) (*RenderedDocument, error)
}

// Extractor obtains the structured-field response for a set of page images.
type Extractor interface {
	Extract(ctx context.Context, images []PageImage) (string, error)
}
