// Package store implements the client's local key/value store: the durable
// analog of browser local storage, backed by an embedded SQLite database.
// Values are JSON-serialized under keys namespaced by user identifier.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"subtrack/internal/client/store/migrations"
)

// ErrPersistence wraps any storage read/write/parse failure so callers can
// distinguish persistence problems from domain errors.
var ErrPersistence = errors.New("persistence error")

// Store is a SQLite-backed key/value store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the local store at the given DSN and runs
// pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", ErrPersistence, err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: run migrations: %v", ErrPersistence, err)
	}

	return &Store{db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the raw value for a key. found is false when the key is absent.
func (s *Store) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: get storage[%s]: %v", ErrPersistence, key, err)
	}
	return value, true, nil
}

// Set upserts the raw value for a key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO storage (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: set storage[%s]: %v", ErrPersistence, key, err)
	}
	return nil
}

// Delete removes a key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM storage WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("%w: delete storage[%s]: %v", ErrPersistence, key, err)
	}
	return nil
}

// GetJSON unmarshals the value for a key into v. found is false when the
// key is absent; v is left untouched in that case.
func (s *Store) GetJSON(ctx context.Context, key string, v any) (found bool, err error) {
	raw, found, err := s.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("%w: parse storage[%s]: %v", ErrPersistence, key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it under the key.
func (s *Store) SetJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: marshal storage[%s]: %v", ErrPersistence, key, err)
	}
	return s.Set(ctx, key, raw)
}
