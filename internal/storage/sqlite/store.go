// Package sqlite backs the local blob store with a single SQLite file.
package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
)`

// Store implements storage.Store on a SQLite database file
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (or creates) the database at path. Use ":memory:" for a throwaway store.
func Open(path string, logger *zap.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob store: %w", err)
	}
	// modernc sqlite serialises writers; a single connection also keeps ":memory:" coherent
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create blob table: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM blobs WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		s.logger.Error("Failed to read blob", zap.String("key", key), zap.Error(err))
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UnixMilli())
	if err != nil {
		s.logger.Error("Failed to write blob", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Close releases the database handle
func (s *Store) Close() error {
	return s.db.Close()
}
