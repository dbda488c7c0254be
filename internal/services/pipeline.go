package services

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
	"github.com/Lllllllleong/orderdocumentflow/internal/ocr"
)

// ScanPipeline sequences the full document scan: intake validation, format
// normalization, per-page OCR, aggregation, line extraction, inventory
// resolution, and cleanup. Exactly one of the returned result/failure pair is
// non-nil; the reaper runs on every exit path.
type ScanPipeline struct {
	config     *config.Config
	validator  *Validator
	normalizer *Normalizer
	executor   *OCRExecutor
	aggregator *Aggregator
	extractor  *LineExtractor
	resolver   *Resolver
}

// NewScanPipeline wires the pipeline stages around the given recognition
// engine and mapping store.
func NewScanPipeline(cfg *config.Config, engine ocr.Engine, store mapping.Store) *ScanPipeline {
	return &ScanPipeline{
		config:     cfg,
		validator:  NewValidator(cfg),
		normalizer: NewNormalizer(cfg),
		executor:   NewOCRExecutor(engine, cfg),
		aggregator: NewAggregator(cfg),
		extractor:  NewLineExtractor(cfg),
		resolver:   NewResolver(store),
	}
}

// Process runs one document through the pipeline. Fatal failures produce a
// ScanFailure with a stable code; everything else produces a ScanResult that
// carries the non-fatal error records alongside the resolved items.
func (p *ScanPipeline) Process(ctx context.Context, doc *models.UploadedDocument) (*models.ScanResult, *models.ScanFailure) {
	start := time.Now()
	logCtx := slog.With("filename", doc.Filename, "size", doc.Size)
	logCtx.Info("Starting document scan.")

	reaper := NewReaper()
	// Safety net for early returns and panics; the explicit Reap calls
	// below collect the errors for the payload, this one is a no-op then.
	defer reaper.Reap()

	// Intake validation runs before anything touches disk.
	if perr := p.validator.Validate(doc); perr != nil {
		logCtx.Warn("Upload rejected.", "code", perr.Code, "error", perr.Message)
		return nil, p.failure(perr, reaper, nil)
	}

	if perr := p.stage(doc, reaper); perr != nil {
		logCtx.Error("Failed to stage upload.", "error", perr)
		return nil, p.failure(perr, reaper, nil)
	}

	pages, perr := p.normalizer.Normalize(doc, reaper)
	if perr != nil {
		logCtx.Warn("Normalization failed.", "code", perr.Code, "error", perr.Error())
		return nil, p.failure(perr, reaper, nil)
	}

	outcomes := p.executor.ProcessPages(ctx, pages)

	aggregated, pageErrors, perr := p.aggregator.Aggregate(outcomes)
	if perr != nil {
		logCtx.Warn("Aggregation failed.", "code", perr.Code)
		return nil, p.failure(perr, reaper, pageErrors)
	}

	candidates, parsingErrors := p.extractor.Extract(aggregated.Text)
	items, resolveErrors := p.resolver.Resolve(ctx, candidates)
	parsingErrors = append(parsingErrors, resolveErrors...)

	if len(items) == 0 && len(parsingErrors) == 0 {
		perr := models.NewPipelineError(models.CodeNoLineItems, "No valid line items found in the text", nil)
		return nil, p.failure(perr, reaper, pageErrors)
	}

	metadata := ExtractMetadata(aggregated.Text)
	cleanupErrors := reaper.Reap()

	result := &models.ScanResult{
		Success:          true,
		LineItems:        items,
		ParsingErrors:    parsingErrors,
		ProcessingErrors: pageErrors,
		CleanupErrors:    cleanupErrors,
		Metadata:         metadata,
		Stats: models.ScanStats{
			TotalItems:       len(items),
			ErrorCount:       len(parsingErrors),
			Confidence:       aggregated.Confidence,
			ProcessingTimeMs: time.Since(start).Milliseconds(),
			TotalPages:       aggregated.TotalPages,
			ProcessedPages:   aggregated.ProcessedPages,
		},
		PageDetails: aggregated.PageDetails,
		RawText:     aggregated.Text,
	}
	if result.LineItems == nil {
		result.LineItems = []models.LineItemCandidate{}
	}
	if result.ParsingErrors == nil {
		result.ParsingErrors = []models.ExtractionError{}
	}
	logCtx.Info("Document scan complete.",
		"items", len(items),
		"parsingErrors", len(parsingErrors),
		"pageErrors", len(pageErrors),
		"elapsedMs", result.Stats.ProcessingTimeMs,
	)
	return result, nil
}

// stage writes the upload to a scratch directory so the normalizer and the
// PDF tooling can work from a file path. Both the file and the directory are
// tracked for cleanup.
func (p *ScanPipeline) stage(doc *models.UploadedDocument, reaper *Reaper) *models.PipelineError {
	workDir, err := os.MkdirTemp("", "order-scan-*")
	if err != nil {
		return models.NewPipelineError(models.CodeInternalError, "Failed to create scratch directory", err)
	}
	reaper.TrackDir(workDir)

	path := filepath.Join(workDir, "upload"+strings.ToLower(filepath.Ext(doc.Filename)))
	if err := os.WriteFile(path, doc.Data, 0600); err != nil {
		return models.NewPipelineError(models.CodeInternalError, "Failed to stage upload", err)
	}
	reaper.Track(path)
	doc.Path = path
	return nil
}

func (p *ScanPipeline) failure(perr *models.PipelineError, reaper *Reaper, pageErrors []models.PageProcessingError) *models.ScanFailure {
	return &models.ScanFailure{
		Success:          false,
		Error:            perr.Message,
		Code:             perr.Code,
		CleanupErrors:    reaper.Reap(),
		ProcessingErrors: pageErrors,
	}
}
