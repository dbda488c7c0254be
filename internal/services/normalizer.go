package services

import (
	"bytes"
	"fmt"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

var pdfHeader = []byte("%PDF-")

// Normalizer turns a validated document into an ordered sequence of page
// images. Image uploads become a one-page sequence wrapping the original
// file; PDFs are structurally checked, bounded by the page limit, and
// rasterized page by page. Every failure here is fatal to the request.
type Normalizer struct {
	config *config.Config
}

// NewNormalizer creates a format normalizer bound to the configured limits.
func NewNormalizer(cfg *config.Config) *Normalizer {
	return &Normalizer{config: cfg}
}

// Normalize produces the page sequence for a staged document. Page files
// created along the way are registered with the reaper immediately, so a
// failure partway through rasterization still leaves nothing behind.
func (n *Normalizer) Normalize(doc *models.UploadedDocument, reaper *Reaper) ([]models.PageImage, *models.PipelineError) {
	if !doc.IsPDF() {
		return []models.PageImage{{PageNumber: 1, Path: doc.Path}}, nil
	}
	return n.rasterizePDF(doc, reaper)
}

func (n *Normalizer) rasterizePDF(doc *models.UploadedDocument, reaper *Reaper) ([]models.PageImage, *models.PipelineError) {
	logCtx := slog.With("filename", doc.Filename)

	if !bytes.HasPrefix(doc.Data, pdfHeader) {
		return nil, models.NewPipelineError(models.CodePDFInvalid, "Invalid PDF file format", nil)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(doc.Path, conf); err != nil {
		return nil, models.NewPipelineError(models.CodePDFInvalid, "PDF appears to be damaged or corrupted", err)
	}

	pageCount, err := api.PageCountFile(doc.Path)
	if err != nil {
		return nil, models.NewPipelineError(models.CodePDFInvalid, "Failed to read PDF page count", err)
	}
	if pageCount == 0 {
		return nil, models.NewPipelineError(models.CodePDFInvalid, "PDF has no pages", nil)
	}
	if pageCount > n.config.MaxPDFPages {
		return nil, models.NewPipelineError(models.CodeTooManyPages,
			fmt.Sprintf("PDF has too many pages. Maximum allowed is %d", n.config.MaxPDFPages), nil)
	}

	fitzDoc, err := fitz.New(doc.Path)
	if err != nil {
		return nil, models.NewPipelineError(models.CodePDFConversionFailed, "Failed to open PDF for rasterization", err)
	}
	defer fitzDoc.Close()

	pages := make([]models.PageImage, 0, pageCount)
	for pageNum := 0; pageNum < pageCount; pageNum++ {
		img, err := fitzDoc.ImageDPI(pageNum, n.config.RasterDPI)
		if err != nil {
			return nil, models.NewPipelineError(models.CodePDFConversionFailed,
				fmt.Sprintf("Failed to rasterize page %d", pageNum+1), err)
		}

		outputPath := filepath.Join(filepath.Dir(doc.Path), fmt.Sprintf("page_%03d.jpg", pageNum+1))
		outputFile, err := os.Create(outputPath)
		if err != nil {
			return nil, models.NewPipelineError(models.CodePDFConversionFailed,
				fmt.Sprintf("Failed to create image file for page %d", pageNum+1), err)
		}
		reaper.Track(outputPath)

		err = jpeg.Encode(outputFile, img, &jpeg.Options{Quality: n.config.JPEGQuality})
		outputFile.Close()
		if err != nil {
			return nil, models.NewPipelineError(models.CodePDFConversionFailed,
				fmt.Sprintf("Failed to encode page %d as JPG", pageNum+1), err)
		}

		bounds := img.Bounds()
		pages = append(pages, models.PageImage{
			PageNumber: pageNum + 1,
			Path:       outputPath,
			Width:      bounds.Dx(),
			Height:     bounds.Dy(),
		})
	}

	logCtx.Info("PDF rasterized.", "pageCount", pageCount)
	return pages, nil
}
