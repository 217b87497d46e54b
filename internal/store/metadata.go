package store

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SetMetadata upserts a key-value pair in the app_metadata table.
func (s *Store) SetMetadata(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO app_metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM app_metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetMetadataTime stores t in RFC 3339 form.
func (s *Store) SetMetadataTime(ctx context.Context, key string, t time.Time) error {
	return s.SetMetadata(ctx, key, t.UTC().Format(time.RFC3339Nano))
}

// GetMetadataTime returns the time stored under key, or the zero time if unset.
func (s *Store) GetMetadataTime(ctx context.Context, key string) (time.Time, error) {
	v, err := s.GetMetadata(ctx, key)
	if err != nil || v == "" {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, v)
}
