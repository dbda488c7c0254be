package mapping

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lllllllleong/orderdocumentflow/internal/models"
)

// MemoryStore is an in-memory Store used in tests and local development.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]models.MappingRecord

	// FailWith, when set, makes every Find return this error. Tests use it
	// to exercise the DB_ERROR path.
	FailWith error
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]models.MappingRecord)}
}

func memoryKey(style, color, size string) string {
	s, c, z := NormalizeKey(style, color, size)
	return fmt.Sprintf("%s|%s|%s", s, c, z)
}

// Put stores one record, replacing any previous record for the same tuple.
func (m *MemoryStore) Put(_ context.Context, rec models.MappingRecord) error {
	rec = Normalize(rec)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[memoryKey(rec.StyleCode, rec.Color, rec.Size)] = rec
	return nil
}

// Find implements Store.
func (m *MemoryStore) Find(_ context.Context, style, color, size string) (*models.MappingRecord, error) {
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[memoryKey(style, color, size)]
	if !ok {
		return nil, ErrNotFound
	}
	out := rec
	return &out, nil
}
