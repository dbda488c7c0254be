package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
)

// TesseractEngine runs recognition through a local Tesseract install via
// gosseract. A fresh client is created per call; gosseract clients are not
// safe for concurrent use.
type TesseractEngine struct {
	whitelist     string
	psm           int
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs the local engine with the configured
// character whitelist and page segmentation mode.
func NewTesseractEngine(cfg *config.Config) *TesseractEngine {
	return &TesseractEngine{
		whitelist:     cfg.TesseractWhitelist,
		psm:           cfg.TesseractPSM,
		clientFactory: gosseract.NewClient,
	}
}

func (e *TesseractEngine) Name() string { return "tesseract" }

// DetectText implements Engine. The underlying recognition call cannot be
// interrupted mid-flight, so it runs on its own goroutine and the deadline is
// enforced by abandoning the result.
func (e *TesseractEngine) DetectText(ctx context.Context, image []byte) (Detection, error) {
	if err := ctx.Err(); err != nil {
		return Detection{}, err
	}

	type outcome struct {
		det Detection
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		det, err := e.recognize(image)
		done <- outcome{det: det, err: err}
	}()

	select {
	case <-ctx.Done():
		return Detection{}, ctx.Err()
	case out := <-done:
		return out.det, out.err
	}
}

func (e *TesseractEngine) recognize(image []byte) (Detection, error) {
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImageFromBytes(image); err != nil {
		return Detection{}, fmt.Errorf("set image: %w", err)
	}
	if e.whitelist != "" {
		if err := c.SetVariable(gosseract.TESSEDIT_CHAR_WHITELIST, e.whitelist); err != nil {
			return Detection{}, fmt.Errorf("set whitelist: %w", err)
		}
	}
	if err := c.SetVariable(gosseract.SettableVariable("tessedit_pageseg_mode"), strconv.Itoa(e.psm)); err != nil {
		return Detection{}, fmt.Errorf("set page segmentation mode: %w", err)
	}

	text, err := c.Text()
	if err != nil {
		return Detection{}, fmt.Errorf("recognize text: %w", err)
	}

	return Detection{
		Text:       strings.TrimSpace(text),
		Confidence: wordConfidence(c),
	}, nil
}

// wordConfidence averages per-word confidences on the 0-100 scale Tesseract
// reports. Zero words means zero confidence.
func wordConfidence(c *gosseract.Client) float64 {
	boxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes))
}
