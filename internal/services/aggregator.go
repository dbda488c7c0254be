package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

// Aggregator merges per-page outcomes into one document-level text blob and
// confidence number. Pages with blank text are excluded and recorded as
// EMPTY_PAGE; pages below the confidence threshold are included but flagged
// LOW_CONFIDENCE. The only fatal condition is zero usable pages.
type Aggregator struct {
	config *config.Config
}

// NewAggregator creates an aggregator bound to the configured threshold.
func NewAggregator(cfg *config.Config) *Aggregator {
	return &Aggregator{config: cfg}
}

// Aggregate consumes outcomes already sorted by page number and produces the
// combined result plus every page-level warning/error record.
func (a *Aggregator) Aggregate(outcomes []models.PageOutcome) (*models.AggregatedResult, []models.PageProcessingError, *models.PipelineError) {
	var (
		pageErrors []models.PageProcessingError
		included   []*models.OCRPageResult
	)

	for _, outcome := range outcomes {
		if outcome.Error != nil {
			pageErrors = append(pageErrors, *outcome.Error)
			continue
		}
		page := outcome.Result

		if strings.TrimSpace(page.Text) == "" {
			pageErrors = append(pageErrors, models.PageProcessingError{
				Type:       models.PageEmpty,
				Message:    fmt.Sprintf("No text extracted from page %d", page.PageNumber),
				PageNumber: page.PageNumber,
			})
			continue
		}

		if page.Confidence < a.config.MinOCRConfidence {
			confidence := page.Confidence
			pageErrors = append(pageErrors, models.PageProcessingError{
				Type:       models.PageLowConfidence,
				Message:    fmt.Sprintf("OCR confidence (%.1f) below threshold for page %d", page.Confidence, page.PageNumber),
				PageNumber: page.PageNumber,
				Confidence: &confidence,
			})
			// Low confidence is a warning; the page still contributes.
		}

		included = append(included, page)
	}

	if len(included) == 0 {
		return nil, pageErrors, models.NewPipelineError(models.CodeNoPagesProcessed,
			"No pages were successfully processed", nil)
	}

	texts := make([]string, 0, len(included))
	details := make([]models.PageDetail, 0, len(included))
	processedPages := make([]int, 0, len(included))
	var confidenceSum float64
	for _, page := range included {
		texts = append(texts, page.Text)
		confidenceSum += page.Confidence
		processedPages = append(processedPages, page.PageNumber)
		details = append(details, models.PageDetail{
			PageNumber: page.PageNumber,
			Confidence: page.Confidence,
			TextLength: len(page.Text),
		})
	}

	result := &models.AggregatedResult{
		Text:           strings.Join(texts, "\n\n"),
		Confidence:     confidenceSum / float64(len(included)),
		TotalPages:     len(included),
		ProcessedPages: processedPages,
		PageDetails:    details,
	}
	slog.Info("Pages aggregated.", "includedPages", len(included), "confidence", result.Confidence)
	return result, pageErrors, nil
}
