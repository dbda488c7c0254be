// Package mapping provides read access to the inventory-mapping reference
// table that translates vendor-facing (style, color, size) tuples into
// supplier-facing (inventory key, size index, warehouse) tuples. The table
// itself is external; the pipeline only performs lookups against it.
package mapping

import (
	"context"
	"errors"
	"strings"

	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

// ErrNotFound is returned by Find when no record matches the tuple. Callers
// must distinguish it from transient store failures: a clean miss is a
// MAPPING_ERROR, anything else is a DB_ERROR.
var ErrNotFound = errors.New("mapping: no record for tuple")

// Store is the lookup contract the resolver depends on. Implementations are
// read-only from the pipeline's point of view.
type Store interface {
	// Find resolves one tuple. Style and size are matched upper-cased,
	// color is matched case-insensitively.
	Find(ctx context.Context, style, color, size string) (*models.MappingRecord, error)
}

// Seeder is the optional write surface used by the mapping-seeder tool and
// by tests. Production pipeline code never calls it.
type Seeder interface {
	Put(ctx context.Context, rec models.MappingRecord) error
}

// NormalizeKey canonicalizes a tuple the way every store implementation
// indexes it: style and size upper-cased, color lower-cased.
func NormalizeKey(style, color, size string) (string, string, string) {
	return strings.ToUpper(strings.TrimSpace(style)),
		strings.ToLower(strings.TrimSpace(color)),
		strings.ToUpper(strings.TrimSpace(size))
}

// Normalize applies the store's canonical casing to a record before writes.
func Normalize(rec models.MappingRecord) models.MappingRecord {
	rec.StyleCode = strings.ToUpper(strings.TrimSpace(rec.StyleCode))
	rec.Color = strings.TrimSpace(rec.Color)
	rec.ColorLower = strings.ToLower(rec.Color)
	rec.Size = strings.ToUpper(strings.TrimSpace(rec.Size))
	rec.InventoryKey = strings.ToUpper(strings.TrimSpace(rec.InventoryKey))
	rec.SizeIndex = strings.ToUpper(strings.TrimSpace(rec.SizeIndex))
	rec.Warehouse = strings.ToUpper(strings.TrimSpace(rec.Warehouse))
	if rec.Warehouse == "" {
		rec.Warehouse = "ATL"
	}
	return rec
}
