package models

import "fmt"

// ExtractionErrorType classifies why one text line failed to become a
// resolved line item. All of these are non-fatal; the line is recorded and
// processing continues.
type ExtractionErrorType string

const (
	ExtractionFormatError  ExtractionErrorType = "FORMAT_ERROR"
	ExtractionMappingError ExtractionErrorType = "MAPPING_ERROR"
	ExtractionDBError      ExtractionErrorType = "DB_ERROR"
	ExtractionParsingError ExtractionErrorType = "PARSING_ERROR"
)

// ExtractionError records one line that could not be resolved.
type ExtractionError struct {
	OriginalText string              `json:"originalText"`
	Message      string              `json:"error"`
	Type         ExtractionErrorType `json:"type"`
	UnmappedData *ItemTuple          `json:"unmappedData,omitempty"`
}

// PageErrorType classifies a non-fatal per-page failure or quality issue.
type PageErrorType string

const (
	PageEmpty         PageErrorType = "EMPTY_PAGE"
	PageLowConfidence PageErrorType = "LOW_CONFIDENCE"
	PageFailure       PageErrorType = "PAGE_PROCESSING_ERROR"
)

// PageProcessingError is recorded for a page that produced no usable text,
// produced text below the confidence threshold, or failed outright.
type PageProcessingError struct {
	Type       PageErrorType `json:"type"`
	Message    string        `json:"message"`
	PageNumber int           `json:"pageNumber"`
	Confidence *float64      `json:"confidence,omitempty"`
}

// ErrorCode is the stable machine-readable code carried by fatal failures.
type ErrorCode string

const (
	CodeNoFile              ErrorCode = "NO_FILE"
	CodeInvalidFileType     ErrorCode = "INVALID_FILE_TYPE"
	CodeFileTooLarge        ErrorCode = "FILE_TOO_LARGE"
	CodeFileTooSmall        ErrorCode = "FILE_TOO_SMALL"
	CodeInvalidFilename     ErrorCode = "INVALID_FILENAME"
	CodePDFInvalid          ErrorCode = "PDF_INVALID"
	CodePDFConversionFailed ErrorCode = "PDF_CONVERSION_FAILED"
	CodeTooManyPages        ErrorCode = "TOO_MANY_PAGES"
	CodeNoPagesProcessed    ErrorCode = "NO_PAGES_PROCESSED"
	CodeNoLineItems         ErrorCode = "NO_LINE_ITEMS"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// PipelineError is a fatal pipeline failure. It aborts the whole request and
// surfaces its code and message in the failure payload. Non-fatal conditions
// never use this type; they travel as ExtractionError or PageProcessingError
// records instead.
type PipelineError struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError builds a fatal failure with a stable code.
func NewPipelineError(code ErrorCode, message string, err error) *PipelineError {
	return &PipelineError{Code: code, Message: message, Err: err}
}
