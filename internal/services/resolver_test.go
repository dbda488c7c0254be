package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

func seededStore(t *testing.T) *mapping.MemoryStore {
	t.Helper()
	store := mapping.NewMemoryStore()
	err := store.Put(context.Background(), models.MappingRecord{
		StyleCode:    "PC61",
		Color:        "Black",
		Size:         "L",
		InventoryKey: "PC61BLK",
		SizeIndex:    "L",
		Warehouse:    "ATL",
	})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	return store
}

func candidate(line, style, color, size, qtyStr string, qty int) models.LineCandidate {
	return models.LineCandidate{
		OriginalText: line,
		Tuple:        models.ItemTuple{Style: style, Color: color, Size: size, Quantity: qtyStr},
		Quantity:     qty,
	}
}

func TestResolveHit(t *testing.T) {
	r := NewResolver(seededStore(t))

	items, errs := r.Resolve(context.Background(), []models.LineCandidate{
		candidate("PC61 Black L 12", "PC61", "Black", "L", "12", 12),
	})
	if len(errs) != 0 {
		t.Fatalf("Resolve() errors = %+v, want none", errs)
	}
	if len(items) != 1 {
		t.Fatalf("Resolve() items = %d, want 1", len(items))
	}
	got := items[0]
	if got.InventoryKey != "PC61BLK" || got.SizeIndex != "L" || got.Warehouse != "ATL" {
		t.Errorf("resolved mapping = %+v, want PC61BLK/L/ATL", got)
	}
	if got.Quantity != 12 {
		t.Errorf("quantity = %d, want 12", got.Quantity)
	}
	if got.Confidence != "high" {
		t.Errorf("confidence = %q, want %q", got.Confidence, "high")
	}
	if got.OriginalText != "PC61 Black L 12" {
		t.Errorf("originalText = %q", got.OriginalText)
	}
}

func TestResolveNormalizesCasing(t *testing.T) {
	r := NewResolver(seededStore(t))

	items, errs := r.Resolve(context.Background(), []models.LineCandidate{
		candidate("pc61 BLACK l 3", "pc61", "BLACK", "l", "3", 3),
	})
	if len(errs) != 0 || len(items) != 1 {
		t.Fatalf("Resolve() = %d items, %d errors; want 1, 0", len(items), len(errs))
	}
	if items[0].InventoryKey != "PC61BLK" {
		t.Errorf("inventoryKey = %q, want %q", items[0].InventoryKey, "PC61BLK")
	}
}

func TestResolveMiss(t *testing.T) {
	r := NewResolver(seededStore(t))

	items, errs := r.Resolve(context.Background(), []models.LineCandidate{
		candidate("PC61 Purple L 5", "PC61", "Purple", "L", "5", 5),
	})
	if len(items) != 0 {
		t.Fatalf("Resolve() items = %+v, want none", items)
	}
	if len(errs) != 1 {
		t.Fatalf("Resolve() errors = %d, want 1", len(errs))
	}
	got := errs[0]
	if got.Type != models.ExtractionMappingError {
		t.Errorf("type = %s, want %s", got.Type, models.ExtractionMappingError)
	}
	if got.UnmappedData == nil {
		t.Fatal("unmappedData = nil, want tuple")
	}
	want := models.ItemTuple{Style: "PC61", Color: "Purple", Size: "L", Quantity: "5"}
	if *got.UnmappedData != want {
		t.Errorf("unmappedData = %+v, want %+v", *got.UnmappedData, want)
	}
}

func TestResolveStoreFailure(t *testing.T) {
	store := seededStore(t)
	store.FailWith = errors.New("connection refused")
	r := NewResolver(store)

	items, errs := r.Resolve(context.Background(), []models.LineCandidate{
		candidate("PC61 Black L 12", "PC61", "Black", "L", "12", 12),
	})
	if len(items) != 0 {
		t.Fatalf("Resolve() items = %+v, want none", items)
	}
	if len(errs) != 1 || errs[0].Type != models.ExtractionDBError {
		t.Fatalf("Resolve() errors = %+v, want one DB_ERROR", errs)
	}
	if errs[0].UnmappedData == nil {
		t.Error("DB_ERROR should carry the tuple")
	}
}

// The resolver must keep going after failed lines so one bad line never
// hides the rest of the document.
func TestResolveContinuesPastFailures(t *testing.T) {
	r := NewResolver(seededStore(t))

	items, errs := r.Resolve(context.Background(), []models.LineCandidate{
		candidate("PC61 Purple L 5", "PC61", "Purple", "L", "5", 5),
		candidate("PC61 Black L 12", "PC61", "Black", "L", "12", 12),
	})
	if len(items) != 1 || len(errs) != 1 {
		t.Fatalf("Resolve() = %d items, %d errors; want 1, 1", len(items), len(errs))
	}
}
