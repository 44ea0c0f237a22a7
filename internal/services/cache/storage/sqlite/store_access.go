package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// PutUserProfile upserts a user profile payload; last write wins.
func (s *Store) PutUserProfile(ctx context.Context, userID string, payload []byte) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	now := timeToUnixMillis(s.now())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO user_profiles (user_id, payload, created_at, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		   payload = excluded.payload,
		   updated_at = excluded.updated_at`,
		userID,
		payload,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("put user profile: %w", err)
	}
	return nil
}

// GetUserProfile loads a user profile payload by user id.
func (s *Store) GetUserProfile(ctx context.Context, userID string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, fmt.Errorf("user id is required")
	}

	var payload []byte
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT payload FROM user_profiles WHERE user_id = ?`,
		userID,
	).Scan(&payload)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get user profile: %w", err)
	}
	return payload, true, nil
}

// GrantAccountAccess records a user's access level for a customer account.
// A later grant for the same pair replaces the earlier one.
func (s *Store) GrantAccountAccess(ctx context.Context, userID, customerID string, level storage.AccessLevel) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return fmt.Errorf("customer id is required")
	}
	if _, err := storage.ParseAccessLevel(string(level)); err != nil {
		return err
	}

	now := timeToUnixMillis(s.now())
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO user_account_access (user_id, customer_id, access_level, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, customer_id) DO UPDATE SET
		   access_level = excluded.access_level,
		   updated_at = excluded.updated_at`,
		userID,
		customerID,
		string(level),
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("grant account access: %w", err)
	}
	return nil
}

// ListUserAccounts returns every account grant held by a user.
func (s *Store) ListUserAccounts(ctx context.Context, userID string) ([]storage.AccountGrant, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT user_id, customer_id, access_level, created_at, updated_at
		 FROM user_account_access
		 WHERE user_id = ?
		 ORDER BY customer_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list user accounts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	grants := make([]storage.AccountGrant, 0)
	for rows.Next() {
		var grant storage.AccountGrant
		var level string
		var createdAt int64
		var updatedAt int64
		if err := rows.Scan(&grant.UserID, &grant.CustomerID, &level, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan account grant: %w", err)
		}
		grant.Level = storage.AccessLevel(level)
		grant.CreatedAt = unixMillisToTime(createdAt)
		grant.UpdatedAt = unixMillisToTime(updatedAt)
		grants = append(grants, grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate account grants: %w", err)
	}
	return grants, nil
}

// CheckAccountAccess reports whether the user's grant for the account covers
// the required level. Absent grants fail every check, including read.
func (s *Store) CheckAccountAccess(ctx context.Context, userID, customerID string, required storage.AccessLevel) (bool, error) {
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, fmt.Errorf("user id is required")
	}
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return false, fmt.Errorf("customer id is required")
	}
	if _, err := storage.ParseAccessLevel(string(required)); err != nil {
		return false, err
	}

	var level string
	err := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT access_level FROM user_account_access WHERE user_id = ? AND customer_id = ?`,
		userID,
		customerID,
	).Scan(&level)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check account access: %w", err)
	}
	return storage.AccessLevel(level).AtLeast(required), nil
}
