package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spherical/invoice-extractor/internal/domain"
	"github.com/spherical/invoice-extractor/internal/llm"
	"github.com/spherical/invoice-extractor/internal/observability"
)

// Outcome is the pipeline's result: either Result or Err is set, never both.
// It encodes as the result object on success and as a bare JSON string on
// failure, which is the shape callers of /api/upload receive.
type Outcome struct {
	Result *domain.InvoiceResult
	Err    string
}

// OK reports whether the outcome carries a result.
func (o Outcome) OK() bool {
	return o.Result != nil
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	if o.Result != nil {
		return json.Marshal(o.Result)
	}
	return json.Marshal(o.Err)
}

func (o *Outcome) UnmarshalJSON(data []byte) error {
	var msg string
	if err := json.Unmarshal(data, &msg); err == nil {
		*o = Outcome{Err: msg}
		return nil
	}
	var res domain.InvoiceResult
	if err := json.Unmarshal(data, &res); err != nil {
		return err
	}
	*o = Outcome{Result: &res}
	return nil
}

// Service runs rasterize-then-extract for one document.
type Service struct {
	rasterizer domain.Rasterizer
	extractor  domain.Extractor
	logger     *observability.Logger
}

// NewService creates a new extraction service
func NewService(rasterizer domain.Rasterizer, extractor domain.Extractor, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.Nop()
	}
	return &Service{
		rasterizer: rasterizer,
		extractor:  extractor,
		logger:     logger.WithOperation("extract"),
	}
}

// Process rasterizes pdfPath and asks the model for the invoice fields.
// Failures are reported in the Outcome rather than returned.
func (s *Service) Process(ctx context.Context, pdfPath string) (out Outcome) {
	logger := s.logger.WithContext(ctx)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Str("panic", fmt.Sprint(r)).Msg("Extraction panicked")
			out = Outcome{Err: processingError(fmt.Errorf("%v", r))}
		}
	}()

	doc, err := s.rasterizer.Rasterize(ctx, pdfPath)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to rasterize PDF")
		return Outcome{Err: processingError(err)}
	}

	logger.Info().
		Int("total_pages", doc.TotalPages).
		Int("pages_analyzed", len(doc.Pages)).
		Msg("Rasterized PDF")

	text, err := s.extractor.Extract(ctx, doc.Pages)
	if err != nil {
		var statusErr *llm.StatusError
		if errors.As(err, &statusErr) {
			logger.Warn().Int("status", statusErr.StatusCode).Msg("Model endpoint returned an error")
			return Outcome{Err: statusErr.Error()}
		}
		logger.Error().Err(err).Msg("Extraction request failed")
		return Outcome{Err: processingError(err)}
	}

	logger.Info().Dur("duration", time.Since(start)).Msg("Extraction complete")

	return Outcome{Result: &domain.InvoiceResult{
		ExtractedData: text,
		TotalPages:    doc.TotalPages,
		PagesAnalyzed: len(doc.Pages),
	}}
}

func processingError(err error) string {
	return "Error processing PDF: " + err.Error()
}
