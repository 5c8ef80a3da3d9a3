package store

import (
	"context"
	"errors"
	"fmt"
)

const SettingAPIKey = "api_key"

func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.q(ctx).QueryRow(ctx, `SELECT value FROM settings WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if err = translate(err, nil); errors.Is(err, ErrNotFound) {
			return "", err
		}
		return "", fmt.Errorf("store: get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSettingIfAbsent stores value under key unless the key exists, and returns
// the value that ends up stored. Concurrent callers all see the same winner.
func (s *Store) SetSettingIfAbsent(ctx context.Context, key, value string) (string, error) {
	var stored string
	err := s.q(ctx).QueryRow(ctx,
		`INSERT INTO settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET key = EXCLUDED.key
RETURNING value`,
		key, value,
	).Scan(&stored)
	if err != nil {
		return "", fmt.Errorf("store: set setting %s: %w", key, err)
	}
	return stored, nil
}
