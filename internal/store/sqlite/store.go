package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/victornm/teamquiz/internal/store"
)

// DefaultPath is used when NewStore gets an empty path.
const DefaultPath = "teamquiz.db"

// Store keeps every collection as one row of a local SQLite file.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	const stmt = `
CREATE TABLE IF NOT EXISTS collections (
	collection_key TEXT PRIMARY KEY,
	records TEXT NOT NULL,
	updated_at_unix INTEGER NOT NULL
);`

	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("sqlite: init schema: %w", err)
	}
	return nil
}

func (s *Store) Read(ctx context.Context, key string) ([]store.Record, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT records FROM collections WHERE collection_key = ?;`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []store.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read %s: %w", key, err)
	}

	return store.DecodeCollection([]byte(raw))
}

func (s *Store) Write(ctx context.Context, key string, records []store.Record) error {
	b, err := store.EncodeCollection(records)
	if err != nil {
		return err
	}

	const stmt = `
INSERT INTO collections (collection_key, records, updated_at_unix) VALUES (?, ?, ?)
ON CONFLICT(collection_key) DO UPDATE SET records = excluded.records, updated_at_unix = excluded.updated_at_unix;`

	if _, err := s.db.ExecContext(ctx, stmt, key, string(b), time.Now().UTC().Unix()); err != nil {
		return fmt.Errorf("sqlite: write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
