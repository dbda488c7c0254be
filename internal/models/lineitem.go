package models

// ItemTuple is the raw (style, color, size, quantity) token group matched out
// of one text line, before any mapping lookup. Quantity stays a string here
// so unmapped tuples can be reported exactly as they were read.
type ItemTuple struct {
	Style    string `json:"style"`
	Color    string `json:"color"`
	Size     string `json:"size"`
	Quantity string `json:"quantity"`
}

// LineCandidate is a trimmed, non-empty source line that matched the order
// line pattern and passed field validation.
type LineCandidate struct {
	OriginalText string
	Tuple        ItemTuple
	Quantity     int
}

// MappingRecord is one row of the external inventory-mapping reference table.
// The (StyleCode, Color, Size) key translates the vendor-facing tuple into
// the supplier-facing (InventoryKey, SizeIndex, Warehouse) tuple.
type MappingRecord struct {
	StyleCode    string `json:"printavoStyleCode" firestore:"printavoStyleCode"`
	Color        string `json:"color" firestore:"color"`
	ColorLower   string `json:"-" firestore:"colorLower"`
	Size         string `json:"size" firestore:"size"`
	InventoryKey string `json:"sanmarInventoryKey" firestore:"sanmarInventoryKey"`
	SizeIndex    string `json:"sizeIndex" firestore:"sizeIndex"`
	Warehouse    string `json:"warehouse" firestore:"warehouse"`
	Description  string `json:"description,omitempty" firestore:"description,omitempty"`
}

// LineItemCandidate is a fully resolved, submittable order line.
type LineItemCandidate struct {
	OriginalText string `json:"originalText"`
	InventoryKey string `json:"inventoryKey"`
	SizeIndex    string `json:"sizeIndex"`
	Warehouse    string `json:"warehouse"`
	Quantity     int    `json:"quantity"`
	Confidence   string `json:"confidence"`
}

// InvoiceMetadata is document-level information scanned out of the aggregated
// text. Every field is optional; extraction is best-effort and never fails
// the request.
type InvoiceMetadata struct {
	PONumber      string   `json:"poNumber,omitempty"`
	OrderDate     string   `json:"orderDate,omitempty"`
	InvoiceNumber string   `json:"invoiceNumber,omitempty"`
	Total         *float64 `json:"total,omitempty"`
}
