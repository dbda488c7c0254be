package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
	"github.com/Lllllllleong/orderdocumentflow/internal/ocr"
)

// OCRExecutor runs the text-recognition engine over each page under a
// per-page deadline. A page's failure or timeout is recorded as a
// PAGE_PROCESSING_ERROR outcome and never aborts the pipeline; every page is
// accounted for independently.
type OCRExecutor struct {
	engine ocr.Engine
	config *config.Config
}

// NewOCRExecutor creates an executor around the given engine.
func NewOCRExecutor(engine ocr.Engine, cfg *config.Config) *OCRExecutor {
	return &OCRExecutor{engine: engine, config: cfg}
}

// ProcessPages recognizes all pages with bounded parallelism and returns one
// outcome per page, sorted by page number. Parallel completion order is an
// implementation detail; the returned ordering is not.
func (e *OCRExecutor) ProcessPages(ctx context.Context, pages []models.PageImage) []models.PageOutcome {
	outcomes := make([]models.PageOutcome, len(pages))

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.config.OCRParallelism)

	for i, page := range pages {
		eg.Go(func() error {
			outcomes[i] = e.processPage(gctx, page)
			// Page failures are collected, not propagated; returning them
			// here would cancel the sibling pages.
			return nil
		})
	}
	_ = eg.Wait()

	sort.Slice(outcomes, func(a, b int) bool {
		return outcomes[a].PageNumber < outcomes[b].PageNumber
	})
	return outcomes
}

func (e *OCRExecutor) processPage(ctx context.Context, page models.PageImage) models.PageOutcome {
	logCtx := slog.With("pageNumber", page.PageNumber, "engine", e.engine.Name())

	failure := func(msg string) models.PageOutcome {
		logCtx.Warn("Page processing failed.", "reason", msg)
		return models.PageOutcome{
			PageNumber: page.PageNumber,
			Error: &models.PageProcessingError{
				Type:       models.PageFailure,
				Message:    msg,
				PageNumber: page.PageNumber,
			},
		}
	}

	imageBytes, err := os.ReadFile(page.Path)
	if err != nil {
		return failure(fmt.Sprintf("Invalid image file for page %d: %v", page.PageNumber, err))
	}
	if len(imageBytes) == 0 {
		return failure(fmt.Sprintf("Invalid image file for page %d: empty file", page.PageNumber))
	}

	pageCtx, cancel := context.WithTimeout(ctx, e.config.OCRTimeout)
	defer cancel()

	detection, err := e.engine.DetectText(pageCtx, imageBytes)
	if err != nil {
		if pageCtx.Err() == context.DeadlineExceeded {
			return failure(fmt.Sprintf("OCR timeout for page %d", page.PageNumber))
		}
		return failure(fmt.Sprintf("OCR failed for page %d: %v", page.PageNumber, err))
	}

	logCtx.Info("Page recognized.", "confidence", detection.Confidence, "textLength", len(detection.Text))
	return models.PageOutcome{
		PageNumber: page.PageNumber,
		Result: &models.OCRPageResult{
			PageNumber: page.PageNumber,
			Text:       detection.Text,
			Confidence: detection.Confidence,
		},
	}
}
