package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PutConfig stores a configuration payload. An empty userID writes the
// system scope; the two scopes never overwrite each other.
func (s *Store) PutConfig(ctx context.Context, key string, payload []byte, userID string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("config key is required")
	}

	now := timeToUnixMillis(s.now())
	userID = strings.TrimSpace(userID)
	if userID == "" {
		_, err := s.sqlDB.ExecContext(
			ctx,
			`INSERT INTO system_config (config_key, payload, updated_at)
			 VALUES (?, ?, ?)
			 ON CONFLICT(config_key) DO UPDATE SET
			   payload = excluded.payload,
			   updated_at = excluded.updated_at`,
			key,
			payload,
			now,
		)
		if err != nil {
			return fmt.Errorf("put system config: %w", err)
		}
		return nil
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO user_config (user_id, config_key, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id, config_key) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		userID,
		key,
		payload,
		now,
	)
	if err != nil {
		return fmt.Errorf("put user config: %w", err)
	}
	return nil
}

// GetConfig resolves a configuration key. With a userID the user scope wins,
// falling back to the system scope; without one only the system scope is
// consulted.
func (s *Store) GetConfig(ctx context.Context, key string, userID string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("config key is required")
	}

	userID = strings.TrimSpace(userID)
	if userID != "" {
		var payload []byte
		err := s.sqlDB.QueryRowContext(
			ctx,
			`SELECT payload FROM user_config WHERE user_id = ? AND config_key = ?`,
			userID,
			key,
		).Scan(&payload)
		if err == nil {
			return payload, true, nil
		}
		if err != sql.ErrNoRows {
			return nil, false, fmt.Errorf("get user config: %w", err)
		}
	}

	var payload []byte
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT payload FROM system_config WHERE config_key = ?`,
		key,
	).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get system config: %w", err)
	}
	return payload, true, nil
}
