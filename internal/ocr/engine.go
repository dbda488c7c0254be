// Package ocr abstracts text recognition behind a small engine interface so
// the pipeline can run against a local Tesseract install or a remote Vertex AI
// model without branching on backend identity. Engines honor the caller's
// context deadline cooperatively.
package ocr

import (
	"context"
	"fmt"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/gcp"
)

// Detection is a single recognition outcome: the linearized page text and a
// 0-100 confidence estimate.
type Detection struct {
	Text       string
	Confidence float64
}

// Engine is the text-recognition contract: one image in, one detection out.
type Engine interface {
	Name() string
	DetectText(ctx context.Context, image []byte) (Detection, error)
}

// NewEngine selects and constructs the configured engine.
func NewEngine(ctx context.Context, cfg *config.Config) (Engine, error) {
	switch cfg.OCREngine {
	case config.EngineTesseract:
		return NewTesseractEngine(cfg), nil
	case config.EngineVertex:
		client, err := gcp.NewVertexClient(ctx, cfg.ProjectID, cfg.VertexAIRegion, cfg.VertexModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create vertex client: %w", err)
		}
		return NewVertexEngine(client), nil
	default:
		return nil, fmt.Errorf("unknown OCR engine %q", cfg.OCREngine)
	}
}
