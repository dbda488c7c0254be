package mapping

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

// FirestoreStore looks up inventory mappings in a Firestore collection.
// Records are written by the seeding tooling with style/size upper-cased and
// a colorLower field, so lookups are single equality queries.
type FirestoreStore struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreStore wraps an existing Firestore client.
func NewFirestoreStore(client *firestore.Client, collection string) *FirestoreStore {
	return &FirestoreStore{client: client, collection: collection}
}

// Find implements Store.
func (s *FirestoreStore) Find(ctx context.Context, style, color, size string) (*models.MappingRecord, error) {
	st, colorLower, sz := NormalizeKey(style, color, size)
	it := s.client.Collection(s.collection).
		Where("printavoStyleCode", "==", st).
		Where("colorLower", "==", colorLower).
		Where("size", "==", sz).
		Limit(1).
		Documents(ctx)
	defer it.Stop()

	doc, err := it.Next()
	if err == iterator.Done {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mapping query failed: %w", err)
	}
	var rec models.MappingRecord
	if err := doc.DataTo(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode mapping document %s: %w", doc.Ref.ID, err)
	}
	return &rec, nil
}

// Put implements Seeder. The document ID is derived from the tuple so
// re-seeding is idempotent.
func (s *FirestoreStore) Put(ctx context.Context, rec models.MappingRecord) error {
	rec = Normalize(rec)
	docID := strings.Join([]string{rec.StyleCode, rec.ColorLower, rec.Size}, "-")
	if _, err := s.client.Collection(s.collection).Doc(docID).Set(ctx, rec); err != nil {
		return fmt.Errorf("failed to write mapping %s: %w", docID, err)
	}
	return nil
}
