package services

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

const maxFilenameLength = 255

var (
	allowedMIMETypes = map[string]bool{
		"image/png":       true,
		"image/jpeg":      true,
		"image/jpg":       true,
		"application/pdf": true,
	}
	allowedExtensions = map[string]bool{
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".pdf":  true,
	}
	filenamePattern = regexp.MustCompile(`^[a-zA-Z0-9-_.]+$`)
)

// Validator enforces the intake constraints on an upload before any
// expensive work runs. It is fail-fast: the first violation aborts the
// request with a classified error and no resources are allocated.
type Validator struct {
	config *config.Config
}

// NewValidator creates an intake validator bound to the configured limits.
func NewValidator(cfg *config.Config) *Validator {
	return &Validator{config: cfg}
}

// Validate checks the declared metadata and byte length of an upload. It has
// no side effects; on success the document is cleared for normalization.
func (v *Validator) Validate(doc *models.UploadedDocument) *models.PipelineError {
	if doc == nil || len(doc.Data) == 0 {
		return models.NewPipelineError(models.CodeNoFile, "No file uploaded", nil)
	}

	if doc.Filename == "" || len(doc.Filename) > maxFilenameLength {
		return models.NewPipelineError(models.CodeInvalidFilename,
			fmt.Sprintf("Filename must be 1-%d characters", maxFilenameLength), nil)
	}
	if !filenamePattern.MatchString(doc.Filename) {
		return models.NewPipelineError(models.CodeInvalidFilename,
			"Filename contains invalid characters", nil)
	}

	if !allowedMIMETypes[strings.ToLower(doc.MIMEType)] {
		return models.NewPipelineError(models.CodeInvalidFileType,
			"Invalid file type. Only PNG, JPEG, and PDF are allowed.", nil)
	}
	ext := strings.ToLower(filepath.Ext(doc.Filename))
	if !allowedExtensions[ext] {
		return models.NewPipelineError(models.CodeInvalidFileType,
			fmt.Sprintf("Invalid file extension %q", ext), nil)
	}

	if doc.Size < v.config.MinFileSize {
		return models.NewPipelineError(models.CodeFileTooSmall,
			fmt.Sprintf("File is too small (%d bytes, minimum %d)", doc.Size, v.config.MinFileSize), nil)
	}
	if doc.Size > v.config.MaxFileSize {
		return models.NewPipelineError(models.CodeFileTooLarge,
			fmt.Sprintf("File exceeds maximum size limit (%d bytes, maximum %d)", doc.Size, v.config.MaxFileSize), nil)
	}

	return nil
}
