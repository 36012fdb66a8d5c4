package store

import (
	"database/sql"
	"errors"
	"strconv"
	"time"
)

// SetMetadata upserts a key-value pair in the bank_metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO bank_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM bank_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// RecordImport stores bookkeeping about the latest curriculum import.
func (s *Store) RecordImport(source string, count int) error {
	if err := s.SetMetadata("last_import_source", source); err != nil {
		return err
	}
	if err := s.SetMetadata("last_import_at", time.Now().Format(time.RFC3339)); err != nil {
		return err
	}
	return s.SetMetadata("last_import_count", strconv.Itoa(count))
}
