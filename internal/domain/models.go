package domain

// InvoiceFields lists the keys the model is asked to return, in prompt order.
var InvoiceFields = []string{
	"kunde_navn",
	"installationsadresse",
	"forbrug_kwh",
	"el_abonnement",
	"el_afgift",
	"transport",
	"samlet_pris",
	"faktura_dato",
	"udbyder",
}

// PageImage is one rasterized PDF page held in memory for a single request.
type PageImage struct {
	PageNumber int // 1-based
	Width      int
	Height     int
	Base64PNG  string
}

// DataURL returns the page encoded as a data URL for an image_url content part.
func (p PageImage) DataURL() string {
	return "data:image/png;base64," + p.Base64PNG
}

// RenderedDocument is the result of rasterizing the leading pages of a PDF.
type RenderedDocument struct {
	TotalPages int
	Pages      []PageImage
}

// InvoiceResult is returned to callers when the model answered successfully.
// ExtractedData is passed through verbatim; it is expected to be a JSON object
// keyed by InvoiceFields but is never validated.
type InvoiceResult struct {
	ExtractedData string `json:"extracted_data"`
	TotalPages    int    `json:"total_pages"`
	PagesAnalyzed int    `json:"pages_analyzed"`
}
