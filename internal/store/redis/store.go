package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/victornm/teamquiz/internal/store"
)

// Store keeps each collection as one JSON array under "{prefix}:collection:{key}".
// A single SET replaces the collection, so readers never observe a half-written one.
type Store struct {
	client redis.UniversalClient
	prefix string
}

func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		client: client,
		prefix: prefix,
	}
}

func (s *Store) Read(ctx context.Context, key string) ([]store.Record, error) {
	b, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []store.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", key, err)
	}

	return store.DecodeCollection(b)
}

func (s *Store) Write(ctx context.Context, key string, records []store.Record) error {
	b, err := store.EncodeCollection(records)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.key(key), b, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}

	return nil
}

func (s *Store) key(key string) string {
	if s.prefix == "" {
		return "collection:" + key
	}
	return fmt.Sprintf("%s:collection:%s", s.prefix, key)
}
