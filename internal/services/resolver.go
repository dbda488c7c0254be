package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/orderdocumentflow/internal/mapping"
	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

// Resolver looks up extracted tuples against the inventory-mapping store. A
// hit yields a submittable line item; a clean miss yields MAPPING_ERROR; a
// store failure yields DB_ERROR. Nothing here aborts the request.
type Resolver struct {
	store mapping.Store
}

// NewResolver creates a resolver over the given mapping store.
func NewResolver(store mapping.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve processes every candidate in order, accumulating resolved items
// and per-line errors independently.
func (r *Resolver) Resolve(ctx context.Context, candidates []models.LineCandidate) ([]models.LineItemCandidate, []models.ExtractionError) {
	var (
		items []models.LineItemCandidate
		errs  []models.ExtractionError
	)

	for _, candidate := range candidates {
		item, extractionErr := r.resolveOne(ctx, candidate)
		if extractionErr != nil {
			errs = append(errs, *extractionErr)
			continue
		}
		items = append(items, *item)
	}

	slog.Info("Line resolution complete.", "resolved", len(items), "failed", len(errs))
	return items, errs
}

func (r *Resolver) resolveOne(ctx context.Context, candidate models.LineCandidate) (*models.LineItemCandidate, *models.ExtractionError) {
	tuple := candidate.Tuple
	rec, err := r.store.Find(ctx, tuple.Style, tuple.Color, tuple.Size)
	if err != nil {
		if errors.Is(err, mapping.ErrNotFound) {
			unmapped := tuple
			return nil, &models.ExtractionError{
				OriginalText: candidate.OriginalText,
				Message:      "No mapping found",
				Type:         models.ExtractionMappingError,
				UnmappedData: &unmapped,
			}
		}
		unmapped := tuple
		return nil, &models.ExtractionError{
			OriginalText: candidate.OriginalText,
			Message:      fmt.Sprintf("Database error: %v", err),
			Type:         models.ExtractionDBError,
			UnmappedData: &unmapped,
		}
	}

	return &models.LineItemCandidate{
		OriginalText: candidate.OriginalText,
		InventoryKey: rec.InventoryKey,
		SizeIndex:    rec.SizeIndex,
		Warehouse:    rec.Warehouse,
		Quantity:     candidate.Quantity,
		Confidence:   "high",
	}, nil
}
