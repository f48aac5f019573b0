package postgres

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/victornm/teamquiz/internal/store"
)

// Store keeps every collection as one JSONB row of the collections table.
// The table is created by the migrations package.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) Read(ctx context.Context, key string) ([]store.Record, error) {
	const stmt = `SELECT records FROM collections WHERE collection_key = $1;`

	var raw []byte
	err := s.db.QueryRow(ctx, stmt, key).Scan(&raw)
	if stderrors.Is(err, pgx.ErrNoRows) {
		return []store.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: read %s: %w", key, err)
	}

	return store.DecodeCollection(raw)
}

func (s *Store) Write(ctx context.Context, key string, records []store.Record) error {
	b, err := store.EncodeCollection(records)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO collections (collection_key, records, update_time)
VALUES ($1, $2::jsonb, NOW())
ON CONFLICT (collection_key) DO UPDATE SET records = EXCLUDED.records, update_time = EXCLUDED.update_time;`

	if _, err := s.db.Exec(ctx, stmt, key, string(b)); err != nil {
		return fmt.Errorf("postgres: write %s: %w", key, err)
	}

	return nil
}
