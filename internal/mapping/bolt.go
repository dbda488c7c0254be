package mapping

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

var mappingBucket = []byte("inventory_mappings")

// BoltStore is a local mapping store backed by bbolt. It is meant for
// development and offline use where a Firestore project is not available.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens (creating if necessary) a bbolt-backed mapping store at
// the given path.
func OpenBoltStore(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for mapping db: %w", err)
	}
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open mapping db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(mappingBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create mapping bucket: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *BoltStore) Close() error { return s.db.Close() }

func boltKey(style, color, size string) []byte {
	st, c, sz := NormalizeKey(style, color, size)
	return []byte(fmt.Sprintf("%s|%s|%s", st, c, sz))
}

// Put stores one record, replacing any previous record for the same tuple.
func (s *BoltStore) Put(_ context.Context, rec models.MappingRecord) error {
	rec = Normalize(rec)
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode mapping record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(mappingBucket).Put(boltKey(rec.StyleCode, rec.Color, rec.Size), value)
	})
}

// Find implements Store.
func (s *BoltStore) Find(_ context.Context, style, color, size string) (*models.MappingRecord, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(mappingBucket).Get(boltKey(style, color, size)); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mapping db read failed: %w", err)
	}
	if raw == nil {
		return nil, ErrNotFound
	}
	var rec models.MappingRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("failed to decode mapping record: %w", err)
	}
	return &rec, nil
}
