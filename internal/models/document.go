package models

import "time"

// UploadedDocument is the raw upload handed to the pipeline. It exists only
// for the duration of a single invocation.
type UploadedDocument struct {
	Filename string
	MIMEType string
	Size     int64
	Data     []byte

	// Path is where the upload has been staged on local disk. It is
	// tracked as a transient artifact and removed on every exit path.
	Path string
}

// IsPDF reports whether the declared MIME type is a PDF.
func (d *UploadedDocument) IsPDF() bool {
	return d.MIMEType == "application/pdf"
}

// PageImage is one rasterized page awaiting OCR. Indices are 1-based,
// contiguous, and strictly increasing.
type PageImage struct {
	PageNumber int
	Path       string
	Width      int
	Height     int
}

// OCRPageResult is the successful recognition outcome for a single page.
type OCRPageResult struct {
	PageNumber int
	Text       string
	Confidence float64
}

// PageOutcome carries either a page's OCR result or its processing error.
// Exactly one of Result and Error is set.
type PageOutcome struct {
	PageNumber int
	Result     *OCRPageResult
	Error      *PageProcessingError
}

// AggregatedResult is the document-level OCR outcome: the texts of all usable
// pages joined in ascending page order, and the arithmetic mean of their
// confidences.
type AggregatedResult struct {
	Text       string
	Confidence float64

	// TotalPages counts only the pages that contributed text; empty and
	// failed pages are not included.
	TotalPages     int
	ProcessedPages []int
	PageDetails    []PageDetail
}

// ScanRecord is the Firestore job record maintained by the scan-worker for a
// GCS-triggered invocation.
type ScanRecord struct {
	ScanID           string    `firestore:"scanId,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	SourceObject     string    `firestore:"sourceObject,omitempty"`
	ResultObject     string    `firestore:"resultObject,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	ItemCount        int       `firestore:"itemCount,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}
