// Package store defines the persistence boundary: every collection is an ordered sequence of
// JSON records that is read and replaced as a whole.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Collection keys.
const (
	KeyRooms    = "rooms"
	KeySessions = "sessions"
	KeyPlayers  = "players"
	KeyHistory  = "ranking-history"

	// KeyQuizConfig holds at most one record.
	KeyQuizConfig = "quiz-config"
)

type Record = json.RawMessage

// Store reads and writes whole collections. A collection that was never written reads as empty.
// Implementations must be safe for concurrent use but give no read-modify-write atomicity;
// callers serialize mutations per aggregate.
type Store interface {
	Read(ctx context.Context, key string) ([]Record, error)
	Write(ctx context.Context, key string, records []Record) error
}

// Load reads a collection and decodes every record into T.
func Load[T any](ctx context.Context, s Store, key string) ([]T, error) {
	records, err := s.Read(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	items := make([]T, 0, len(records))
	for i, r := range records {
		var item T
		if err := json.Unmarshal(r, &item); err != nil {
			return nil, fmt.Errorf("decode %s[%d]: %w", key, i, err)
		}
		items = append(items, item)
	}

	return items, nil
}

// Save encodes items and replaces the whole collection.
func Save[T any](ctx context.Context, s Store, key string, items []T) error {
	records := make([]Record, 0, len(items))
	for i := range items {
		b, err := json.Marshal(items[i])
		if err != nil {
			return fmt.Errorf("encode %s[%d]: %w", key, i, err)
		}
		records = append(records, b)
	}

	if err := s.Write(ctx, key, records); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

// EncodeCollection and DecodeCollection are the wire format shared by adapters that keep a
// collection in a single value.
func EncodeCollection(records []Record) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	return json.Marshal(records)
}

func DecodeCollection(b []byte) ([]Record, error) {
	if len(b) == 0 {
		return []Record{}, nil
	}

	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}
