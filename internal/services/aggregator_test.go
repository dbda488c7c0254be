package services

import (
	"testing"

	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

func pageSuccess(page int, text string, confidence float64) models.PageOutcome {
	return models.PageOutcome{
		PageNumber: page,
		Result:     &models.OCRPageResult{PageNumber: page, Text: text, Confidence: confidence},
	}
}

func pageFailed(page int, msg string) models.PageOutcome {
	return models.PageOutcome{
		PageNumber: page,
		Error: &models.PageProcessingError{
			Type:       models.PageFailure,
			Message:    msg,
			PageNumber: page,
		},
	}
}

func TestAggregateJoinsInPageOrder(t *testing.T) {
	a := NewAggregator(testConfig())

	result, pageErrors, perr := a.Aggregate([]models.PageOutcome{
		pageSuccess(1, "page one", 80),
		pageSuccess(2, "page two", 90),
		pageSuccess(3, "page three", 70),
	})
	if perr != nil {
		t.Fatalf("Aggregate() error = %v", perr)
	}
	if len(pageErrors) != 0 {
		t.Fatalf("pageErrors = %v, want none", pageErrors)
	}
	if want := "page one\n\npage two\n\npage three"; result.Text != want {
		t.Errorf("text = %q, want %q", result.Text, want)
	}
	if result.Confidence != 80 {
		t.Errorf("confidence = %v, want 80", result.Confidence)
	}
	if got, want := result.ProcessedPages, []int{1, 2, 3}; len(got) != 3 || got[0] != want[0] || got[2] != want[2] {
		t.Errorf("processedPages = %v, want %v", got, want)
	}
}

func TestAggregateExcludesEmptyPages(t *testing.T) {
	a := NewAggregator(testConfig())

	result, pageErrors, perr := a.Aggregate([]models.PageOutcome{
		pageSuccess(1, "usable", 90),
		pageSuccess(2, "   \n  ", 95),
		pageSuccess(3, "also usable", 70),
	})
	if perr != nil {
		t.Fatalf("Aggregate() error = %v", perr)
	}
	if want := "usable\n\nalso usable"; result.Text != want {
		t.Errorf("text = %q, want %q", result.Text, want)
	}
	// The blank page contributes neither text nor confidence.
	if result.Confidence != 80 {
		t.Errorf("confidence = %v, want 80", result.Confidence)
	}
	if len(pageErrors) != 1 || pageErrors[0].Type != models.PageEmpty || pageErrors[0].PageNumber != 2 {
		t.Fatalf("pageErrors = %+v, want one EMPTY_PAGE for page 2", pageErrors)
	}
	if result.TotalPages != 2 {
		t.Errorf("totalPages = %d, want 2", result.TotalPages)
	}
}

func TestAggregateFlagsLowConfidenceButIncludes(t *testing.T) {
	a := NewAggregator(testConfig())

	result, pageErrors, perr := a.Aggregate([]models.PageOutcome{
		pageSuccess(1, "good page", 90),
		pageSuccess(2, "blurry page", 30),
	})
	if perr != nil {
		t.Fatalf("Aggregate() error = %v", perr)
	}
	if want := "good page\n\nblurry page"; result.Text != want {
		t.Errorf("text = %q, want %q", result.Text, want)
	}
	if result.Confidence != 60 {
		t.Errorf("confidence = %v, want 60", result.Confidence)
	}
	if len(pageErrors) != 1 {
		t.Fatalf("pageErrors = %+v, want one LOW_CONFIDENCE", pageErrors)
	}
	if pageErrors[0].Type != models.PageLowConfidence || pageErrors[0].Confidence == nil || *pageErrors[0].Confidence != 30 {
		t.Errorf("pageErrors[0] = %+v, want LOW_CONFIDENCE with confidence 30", pageErrors[0])
	}
}

func TestAggregateSinglePageConfidence(t *testing.T) {
	a := NewAggregator(testConfig())

	result, _, perr := a.Aggregate([]models.PageOutcome{pageSuccess(1, "only page", 72.5)})
	if perr != nil {
		t.Fatalf("Aggregate() error = %v", perr)
	}
	if result.Confidence != 72.5 {
		t.Errorf("confidence = %v, want 72.5", result.Confidence)
	}
}

func TestAggregateCarriesPageFailures(t *testing.T) {
	a := NewAggregator(testConfig())

	result, pageErrors, perr := a.Aggregate([]models.PageOutcome{
		pageFailed(1, "OCR timeout for page 1"),
		pageSuccess(2, "survivor", 85),
	})
	if perr != nil {
		t.Fatalf("Aggregate() error = %v", perr)
	}
	if result.Text != "survivor" {
		t.Errorf("text = %q, want %q", result.Text, "survivor")
	}
	if len(pageErrors) != 1 || pageErrors[0].Type != models.PageFailure {
		t.Fatalf("pageErrors = %+v, want one PAGE_PROCESSING_ERROR", pageErrors)
	}
	// Only the surviving page counts toward the page total.
	if result.TotalPages != 1 {
		t.Errorf("totalPages = %d, want 1", result.TotalPages)
	}
}

func TestAggregateFailsWithZeroUsablePages(t *testing.T) {
	a := NewAggregator(testConfig())

	_, pageErrors, perr := a.Aggregate([]models.PageOutcome{
		pageFailed(1, "boom"),
		pageSuccess(2, "", 90),
	})
	if perr == nil {
		t.Fatal("Aggregate() = nil error, want NO_PAGES_PROCESSED")
	}
	if perr.Code != models.CodeNoPagesProcessed {
		t.Errorf("code = %s, want %s", perr.Code, models.CodeNoPagesProcessed)
	}
	if len(pageErrors) != 2 {
		t.Errorf("pageErrors = %d, want 2", len(pageErrors))
	}
}
