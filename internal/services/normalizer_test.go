package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
	"github.com/Lllllllleong/orderdocumentflow/internal/ocr"
)

// pdfFixture builds a minimal but structurally valid PDF with the given
// number of empty pages. Object offsets are computed while writing, so the
// cross-reference table is always consistent.
func pdfFixture(pageCount int) []byte {
	var buf bytes.Buffer
	var offsets []int
	writeObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	buf.WriteString("%PDF-1.4\n")

	kids := make([]string, 0, pageCount)
	for i := 0; i < pageCount; i++ {
		kids = append(kids, fmt.Sprintf("%d 0 R", i+3))
	}
	writeObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	writeObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n",
		strings.Join(kids, " "), pageCount))
	for i := 0; i < pageCount; i++ {
		writeObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", i+3))
	}

	xrefOffset := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(offsets)+1, xrefOffset)
	return buf.Bytes()
}

// stagedDoc writes the upload into a temp dir the way the pipeline stages it.
func stagedDoc(t *testing.T, filename, mimeType string, data []byte) *models.UploadedDocument {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload"+strings.ToLower(filepath.Ext(filename)))
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return &models.UploadedDocument{
		Filename: filename,
		MIMEType: mimeType,
		Size:     int64(len(data)),
		Data:     data,
		Path:     path,
	}
}

func pageArtifacts(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, "page_*.jpg"))
	if err != nil {
		t.Fatalf("Glob() error = %v", err)
	}
	return matches
}

func TestNormalizeImagePassThrough(t *testing.T) {
	n := NewNormalizer(testConfig())
	doc := stagedDoc(t, "scan.png", "image/png", bytes.Repeat([]byte("x"), 2048))

	pages, perr := n.Normalize(doc, NewReaper())
	if perr != nil {
		t.Fatalf("Normalize() error = %v", perr)
	}
	if len(pages) != 1 {
		t.Fatalf("Normalize() = %d pages, want 1", len(pages))
	}
	if pages[0].PageNumber != 1 || pages[0].Path != doc.Path {
		t.Errorf("page = %+v, want pageNumber 1 at %s", pages[0], doc.Path)
	}
}

func TestNormalizeRejectsMissingPDFHeader(t *testing.T) {
	n := NewNormalizer(testConfig())
	doc := stagedDoc(t, "order.pdf", "application/pdf", []byte("this is not a pdf at all"))

	_, perr := n.Normalize(doc, NewReaper())
	if perr == nil {
		t.Fatal("Normalize() = nil error, want PDF_INVALID")
	}
	if perr.Code != models.CodePDFInvalid {
		t.Errorf("code = %s, want %s", perr.Code, models.CodePDFInvalid)
	}
}

func TestNormalizeRejectsCorruptPDF(t *testing.T) {
	n := NewNormalizer(testConfig())
	// Correct header, garbage body.
	data := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("garbage "), 64)...)
	doc := stagedDoc(t, "order.pdf", "application/pdf", data)

	_, perr := n.Normalize(doc, NewReaper())
	if perr == nil {
		t.Fatal("Normalize() = nil error, want PDF_INVALID")
	}
	if perr.Code != models.CodePDFInvalid {
		t.Errorf("code = %s, want %s", perr.Code, models.CodePDFInvalid)
	}
}

func TestNormalizeRejectsOversizedPDFWithoutArtifacts(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPDFPages = 2
	n := NewNormalizer(cfg)
	doc := stagedDoc(t, "order.pdf", "application/pdf", pdfFixture(3))

	reaper := NewReaper()
	_, perr := n.Normalize(doc, reaper)
	if perr == nil {
		t.Fatal("Normalize() = nil error, want TOO_MANY_PAGES")
	}
	if perr.Code != models.CodeTooManyPages {
		t.Errorf("code = %s, want %s", perr.Code, models.CodeTooManyPages)
	}
	// The page gate runs before rasterization, so nothing was written.
	if artifacts := pageArtifacts(t, filepath.Dir(doc.Path)); len(artifacts) != 0 {
		t.Errorf("page artifacts left behind: %v", artifacts)
	}
}

func TestNormalizeRejectsZeroPagePDF(t *testing.T) {
	n := NewNormalizer(testConfig())
	doc := stagedDoc(t, "order.pdf", "application/pdf", pdfFixture(0))

	_, perr := n.Normalize(doc, NewReaper())
	if perr == nil {
		t.Fatal("Normalize() = nil error, want PDF_INVALID")
	}
	if perr.Code != models.CodePDFInvalid {
		t.Errorf("code = %s, want %s", perr.Code, models.CodePDFInvalid)
	}
}

// An oversized PDF must be rejected before the recognition engine ever runs.
func TestPipelineOversizedPDFSkipsOCR(t *testing.T) {
	var calls atomic.Int32
	engine := &stubEngine{detect: func(_ context.Context, _ []byte) (ocr.Detection, error) {
		calls.Add(1)
		return ocr.Detection{Text: "PC61 Black L 12", Confidence: 90}, nil
	}}

	cfg := testConfig()
	cfg.MaxPDFPages = 2
	cfg.MinFileSize = 64
	p := NewScanPipeline(cfg, engine, mapping.NewMemoryStore())

	data := pdfFixture(3)
	doc := &models.UploadedDocument{
		Filename: "order.pdf",
		MIMEType: "application/pdf",
		Size:     int64(len(data)),
		Data:     data,
	}

	result, failure := p.Process(context.Background(), doc)
	if result != nil {
		t.Fatalf("Process() = %+v, want failure", result)
	}
	if failure.Code != models.CodeTooManyPages {
		t.Errorf("code = %s, want %s", failure.Code, models.CodeTooManyPages)
	}
	if n := calls.Load(); n != 0 {
		t.Errorf("engine called %d times, want 0", n)
	}
	if doc.Path != "" {
		if artifacts := pageArtifacts(t, filepath.Dir(doc.Path)); len(artifacts) != 0 {
			t.Errorf("page artifacts left behind: %v", artifacts)
		}
	}
}
