package services

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

func TestExtractMatchesOrderLine(t *testing.T) {
	e := NewLineExtractor(testConfig())

	candidates, errs := e.Extract("PC61 Black L 12")
	if len(errs) != 0 {
		t.Fatalf("Extract() errors = %v, want none", errs)
	}
	if len(candidates) != 1 {
		t.Fatalf("Extract() candidates = %d, want 1", len(candidates))
	}
	got := candidates[0]
	want := models.LineCandidate{
		OriginalText: "PC61 Black L 12",
		Tuple:        models.ItemTuple{Style: "PC61", Color: "Black", Size: "L", Quantity: "12"},
		Quantity:     12,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}

func TestExtractClassifiesErrors(t *testing.T) {
	e := NewLineExtractor(testConfig())

	tests := []struct {
		name string
		line string
		want models.ExtractionErrorType
	}{
		{"prose line", "thank you for your order", models.ExtractionFormatError},
		{"missing quantity", "PC61 Black L", models.ExtractionFormatError},
		{"zero quantity", "PC61 Black L 0", models.ExtractionParsingError},
		{"quantity over limit", "PC61 Black L 20000", models.ExtractionParsingError},
		{"oversized style", strings.Repeat("A", 21) + " Black L 5", models.ExtractionParsingError},
		{"oversized size", "PC61 Black " + strings.Repeat("X", 11) + " 5", models.ExtractionParsingError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidates, errs := e.Extract(tt.line)
			if len(candidates) != 0 {
				t.Fatalf("Extract() candidates = %+v, want none", candidates)
			}
			if len(errs) != 1 {
				t.Fatalf("Extract() errors = %d, want 1", len(errs))
			}
			if errs[0].Type != tt.want {
				t.Errorf("error type = %s, want %s", errs[0].Type, tt.want)
			}
			if errs[0].OriginalText != tt.line {
				t.Errorf("originalText = %q, want %q", errs[0].OriginalText, tt.line)
			}
		})
	}
}

func TestExtractIsCaseInsensitive(t *testing.T) {
	e := NewLineExtractor(testConfig())

	candidates, errs := e.Extract("pc61 black xl 3")
	if len(errs) != 0 || len(candidates) != 1 {
		t.Fatalf("Extract() = %d candidates, %d errors; want 1, 0", len(candidates), len(errs))
	}
	// Casing is preserved here; the resolver normalizes for lookup.
	if candidates[0].Tuple.Style != "pc61" {
		t.Errorf("style = %q, want %q", candidates[0].Tuple.Style, "pc61")
	}
}

func TestExtractSkipsBlankAndTruncates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxLineItems = 3
	e := NewLineExtractor(cfg)

	var sb strings.Builder
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&sb, "PC61 Black L %d\n\n  \n", i)
	}
	candidates, errs := e.Extract(sb.String())
	if len(errs) != 0 {
		t.Fatalf("Extract() errors = %v, want none", errs)
	}
	if len(candidates) != 3 {
		t.Fatalf("Extract() candidates = %d, want 3 (truncated)", len(candidates))
	}
	for i, c := range candidates {
		if c.Quantity != i+1 {
			t.Errorf("candidate %d quantity = %d, want %d", i, c.Quantity, i+1)
		}
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	e := NewLineExtractor(testConfig())
	text := "PC61 Black L 12\nnot an order line\nPC61 Navy XL 5"

	c1, e1 := e.Extract(text)
	c2, e2 := e.Extract(text)
	if !reflect.DeepEqual(c1, c2) || !reflect.DeepEqual(e1, e2) {
		t.Error("Extract() produced different results for identical input")
	}
}

func TestExtractMetadata(t *testing.T) {
	text := strings.Join([]string{
		"ACME SCREEN PRINTING",
		"P.O. # PO-4417",
		"Date: 12/03/2024",
		"Invoice # INV-2210",
		"PC61 Black L 12",
		"Total: $1,234.50",
	}, "\n")

	meta := ExtractMetadata(text)
	if meta.PONumber != "PO-4417" {
		t.Errorf("poNumber = %q, want %q", meta.PONumber, "PO-4417")
	}
	if meta.OrderDate != "12/03/2024" {
		t.Errorf("orderDate = %q, want %q", meta.OrderDate, "12/03/2024")
	}
	if meta.InvoiceNumber != "INV-2210" {
		t.Errorf("invoiceNumber = %q, want %q", meta.InvoiceNumber, "INV-2210")
	}
	if meta.Total == nil || *meta.Total != 1234.50 {
		t.Errorf("total = %v, want 1234.50", meta.Total)
	}
}

func TestExtractMetadataEmpty(t *testing.T) {
	meta := ExtractMetadata("PC61 Black L 12")
	if meta.PONumber != "" || meta.OrderDate != "" || meta.InvoiceNumber != "" || meta.Total != nil {
		t.Errorf("ExtractMetadata() = %+v, want zero value", meta)
	}
}
