package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/victornm/teamquiz/internal/store"
)

// Store keeps collections in process memory. Records are copied on read and write so callers
// never share buffers with the store.
type Store struct {
	mu          sync.RWMutex
	collections map[string][]store.Record
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string][]store.Record),
	}
}

func (s *Store) Read(_ context.Context, key string) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return clone(s.collections[key]), nil
}

func (s *Store) Write(_ context.Context, key string, records []store.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.collections[key] = clone(records)
	return nil
}

func clone(records []store.Record) []store.Record {
	out := make([]store.Record, 0, len(records))
	for _, r := range records {
		out = append(out, bytes.Clone(r))
	}
	return out
}
