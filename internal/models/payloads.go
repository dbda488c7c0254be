package models

// These structs define the JSON payloads returned to callers of the scan
// pipeline, both from the order-scanner HTTP entrypoint and as the result
// object written by the scan-worker.

// ScanStats summarizes one pipeline invocation.
type ScanStats struct {
	TotalItems       int     `json:"totalItems"`
	ErrorCount       int     `json:"errorCount"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMs int64   `json:"processingTimeMs"`
	TotalPages       int     `json:"totalPages"`
	ProcessedPages   []int   `json:"processedPages"`
}

// PageDetail reports the per-page OCR outcome included in a success payload.
type PageDetail struct {
	PageNumber int     `json:"pageNumber"`
	Confidence float64 `json:"confidence"`
	TextLength int     `json:"textLength"`
}

// ScanResult is the success payload: resolved line items plus every
// non-fatal error recorded along the way.
type ScanResult struct {
	Success          bool                  `json:"success"`
	LineItems        []LineItemCandidate   `json:"lineItems"`
	ParsingErrors    []ExtractionError     `json:"parsingErrors"`
	ProcessingErrors []PageProcessingError `json:"processingErrors,omitempty"`
	CleanupErrors    []string              `json:"cleanupErrors,omitempty"`
	Metadata         InvoiceMetadata       `json:"metadata"`
	Stats            ScanStats             `json:"stats"`
	PageDetails      []PageDetail          `json:"pageDetails"`
	RawText          string                `json:"rawText"`
}

// ScanFailure is the fatal-failure payload. Code is stable and lets callers
// distinguish "nothing usable happened" from "retry with a narrower file".
type ScanFailure struct {
	Success          bool                  `json:"success"`
	Error            string                `json:"error"`
	Code             ErrorCode             `json:"code"`
	CleanupErrors    []string              `json:"cleanupErrors,omitempty"`
	ProcessingErrors []PageProcessingError `json:"processingErrors,omitempty"`
}
