// Package sqlstore keeps the current state of state machines in a SQL table,
// one row per machine key.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/atlekbai/hsm/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS hsm_state (
	machine_key TEXT PRIMARY KEY,
	state       BLOB NOT NULL,
	updated_at  TEXT NOT NULL
);
`

// Store is an hsm.StateStorage backed by the hsm_state table. Machines sharing a
// database are told apart by their key.
type Store[S any] struct {
	db      *sql.DB
	key     string
	initial S
	codec   storage.Codec[S]
}

// Option configures a Store.
type Option[S any] func(*Store[S])

// WithCodec replaces the default JSON codec.
func WithCodec[S any](codec storage.Codec[S]) Option[S] {
	return func(s *Store[S]) {
		s.codec = codec
	}
}

// Open opens a SQLite database at path and runs the migration.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the hsm_state table if it does not exist.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// New returns a store for the machine identified by key. Until a state is stored,
// Load reports initial.
func New[S any](db *sql.DB, key string, initial S, opts ...Option[S]) *Store[S] {
	s := &Store[S]{
		db:      db,
		key:     key,
		initial: initial,
		codec:   storage.JSONCodec[S]{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the machine key of the store.
func (s *Store[S]) Key() string {
	return s.key
}

// Load implements hsm.StateStorage.
func (s *Store[S]) Load(ctx context.Context) (S, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM hsm_state WHERE machine_key = ?`, s.key,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return s.initial, nil
	}
	if err != nil {
		var zero S
		return zero, fmt.Errorf("query state of %q: %w", s.key, err)
	}
	return s.codec.Decode(data)
}

// Store implements hsm.StateStorage.
func (s *Store[S]) Store(ctx context.Context, state S) error {
	data, err := s.codec.Encode(state)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO hsm_state (machine_key, state, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(machine_key) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		s.key, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert state of %q: %w", s.key, err)
	}
	return nil
}

// Delete removes the stored state, so that Load reports the initial state again.
func (s *Store[S]) Delete(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM hsm_state WHERE machine_key = ?`, s.key); err != nil {
		return fmt.Errorf("delete state of %q: %w", s.key, err)
	}
	return nil
}
