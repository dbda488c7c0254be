package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lllllllleong/orderdocumentflow/internal/config"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

// Field length caps applied after a pattern match.
const (
	maxStyleLength = 20
	maxColorLength = 20
	maxSizeLength  = 10
	maxQuantity    = 10000
)

// linePattern matches one order line into named fields. The four tokens are,
// in sequence: style code, color, size (letters/digits), quantity (digits).
// Matching is case-insensitive and unanchored; the first match in the line
// wins.
type linePattern struct {
	re      *regexp.Regexp
	indices map[string]int
}

func newLinePattern() *linePattern {
	re := regexp.MustCompile(`(?i)(?P<style>\w+)\s+(?P<color>\w+)\s+(?P<size>[A-Za-z0-9]+)\s+(?P<quantity>\d+)`)
	indices := make(map[string]int)
	for i, name := range re.SubexpNames() {
		if name != "" {
			indices[name] = i
		}
	}
	return &linePattern{re: re, indices: indices}
}

// match extracts the named fields from a line, reporting whether the line
// has the expected structure at all.
func (p *linePattern) match(line string) (models.ItemTuple, bool) {
	groups := p.re.FindStringSubmatch(line)
	if groups == nil {
		return models.ItemTuple{}, false
	}
	return models.ItemTuple{
		Style:    groups[p.indices["style"]],
		Color:    groups[p.indices["color"]],
		Size:     groups[p.indices["size"]],
		Quantity: groups[p.indices["quantity"]],
	}, true
}

// LineExtractor splits aggregated text into candidate lines and pattern-
// matches each into a tentative (style, color, size, quantity) tuple. Lines
// beyond the configured limit are silently dropped.
type LineExtractor struct {
	config  *config.Config
	pattern *linePattern
}

// NewLineExtractor creates an extractor bound to the configured line limit.
func NewLineExtractor(cfg *config.Config) *LineExtractor {
	return &LineExtractor{config: cfg, pattern: newLinePattern()}
}

// Extract walks the text line by line. Lines that fail the pattern yield a
// FORMAT_ERROR; matched lines with an out-of-range quantity or an oversized
// field yield a PARSING_ERROR; everything else becomes a candidate for the
// resolver. The function is pure: identical text yields identical results.
func (e *LineExtractor) Extract(text string) ([]models.LineCandidate, []models.ExtractionError) {
	var (
		candidates []models.LineCandidate
		errors     []models.ExtractionError
	)

	lines := splitLines(text, e.config.MaxLineItems)
	for _, line := range lines {
		tuple, ok := e.pattern.match(line)
		if !ok {
			errors = append(errors, models.ExtractionError{
				OriginalText: line,
				Message:      "Line format does not match expected pattern",
				Type:         models.ExtractionFormatError,
			})
			continue
		}

		if len(tuple.Style) > maxStyleLength || len(tuple.Color) > maxColorLength || len(tuple.Size) > maxSizeLength {
			errors = append(errors, models.ExtractionError{
				OriginalText: line,
				Message:      "Field length exceeds maximum",
				Type:         models.ExtractionParsingError,
			})
			continue
		}

		qty, err := strconv.Atoi(tuple.Quantity)
		if err != nil || qty <= 0 || qty > maxQuantity {
			errors = append(errors, models.ExtractionError{
				OriginalText: line,
				Message:      fmt.Sprintf("Invalid quantity %q", tuple.Quantity),
				Type:         models.ExtractionParsingError,
			})
			continue
		}

		candidates = append(candidates, models.LineCandidate{
			OriginalText: line,
			Tuple:        tuple,
			Quantity:     qty,
		})
	}

	return candidates, errors
}

// splitLines returns the first limit trimmed, non-blank lines of text.
func splitLines(text string, limit int) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == limit {
			break
		}
	}
	return lines
}

// Metadata patterns scanned against each line of the aggregated text. First
// match per field wins.
var (
	poNumberPattern = regexp.MustCompile(`(?i)p\.?o\.?\s*#?\s*:?\s*(\w+[-\d]+)`)
	datePattern     = regexp.MustCompile(`(?i)date:?\s*(\d{1,2}[-/]\d{1,2}[-/]\d{2,4})`)
	invoicePattern  = regexp.MustCompile(`(?i)inv(?:oice)?\.?\s*#?\s*:?\s*(\w+[-\d]+)`)
	totalPattern    = regexp.MustCompile(`(?i)total:?\s*\$?\s*([\d,.]+)`)
)

// ExtractMetadata scans the aggregated text for document-level fields: PO
// number, order date, invoice number, and total amount. Best-effort only.
func ExtractMetadata(text string) models.InvoiceMetadata {
	var meta models.InvoiceMetadata

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := poNumberPattern.FindStringSubmatch(line); m != nil && meta.PONumber == "" {
			meta.PONumber = m[1]
			continue
		}
		if m := datePattern.FindStringSubmatch(line); m != nil && meta.OrderDate == "" {
			meta.OrderDate = m[1]
			continue
		}
		if m := invoicePattern.FindStringSubmatch(line); m != nil && meta.InvoiceNumber == "" {
			meta.InvoiceNumber = m[1]
			continue
		}
		if m := totalPattern.FindStringSubmatch(line); m != nil && meta.Total == nil {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
				meta.Total = &v
			}
			continue
		}
	}

	return meta
}
