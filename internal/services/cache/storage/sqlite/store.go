// Package sqlite implements the cache store contract over a single SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	sqlitemigrate "github.com/adbridge-io/adbridge/internal/platform/storage/sqlitemigrate"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for cache, access, and config data.
//
// One file backs every domain so multi-statement writes share a single
// transaction boundary. WAL mode keeps concurrent readers consistent while
// the driver serializes writers.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the store at path and applies bundled migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB, now: func() time.Time { return time.Now().UTC() }}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the underlying SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// runMigrations applies embedded SQL migrations in filename order.
func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

// domainTable maps a domain to its table name after validating it. Table
// names cannot be bound as SQL parameters, so the whitelist is the guard.
func domainTable(domain storage.Domain) (string, error) {
	if !storage.ValidDomain(domain) {
		return "", fmt.Errorf("unknown cache domain %q", domain)
	}
	return string(domain), nil
}

// Put upserts a cache record; the record's validity is [now, now+ttl).
func (s *Store) Put(ctx context.Context, domain storage.Domain, key string, payload []byte, ttl time.Duration) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	table, err := domainTable(domain)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("cache key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	now := s.now()
	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO `+table+` (cache_key, payload, created_at, expires_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET
		   payload = excluded.payload,
		   created_at = excluded.created_at,
		   expires_at = excluded.expires_at`,
		key,
		payload,
		timeToUnixMillis(now),
		timeToUnixMillis(now.Add(ttl)),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

// Get loads a payload by key. Expired records are deleted on read and
// reported as absent; callers cannot distinguish expired from never stored.
func (s *Store) Get(ctx context.Context, domain storage.Domain, key string) ([]byte, bool, error) {
	if s == nil || s.sqlDB == nil {
		return nil, false, fmt.Errorf("storage is not configured")
	}
	table, err := domainTable(domain)
	if err != nil {
		return nil, false, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("cache key is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT payload, expires_at FROM `+table+` WHERE cache_key = ?`,
		key,
	)

	var payload []byte
	var expiresAt int64
	if err := row.Scan(&payload, &expiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get cache entry: %w", err)
	}

	if timeToUnixMillis(s.now()) >= expiresAt {
		if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM `+table+` WHERE cache_key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("delete expired cache entry: %w", err)
		}
		return nil, false, nil
	}
	return payload, true, nil
}

// Delete removes a cache record by key.
func (s *Store) Delete(ctx context.Context, domain storage.Domain, key string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	table, err := domainTable(domain)
	if err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("cache key is required")
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM `+table+` WHERE cache_key = ?`, key); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}
	return nil
}

// Count returns the number of records in a domain, expired rows included.
func (s *Store) Count(ctx context.Context, domain storage.Domain) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	table, err := domainTable(domain)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count cache entries: %w", err)
	}
	return count, nil
}

// Clear empties the given domains, or every cache domain when none are given.
func (s *Store) Clear(ctx context.Context, domains ...storage.Domain) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(domains) == 0 {
		domains = storage.CacheDomains()
	}
	tables := make([]string, 0, len(domains))
	for _, domain := range domains {
		table, err := domainTable(domain)
		if err != nil {
			return err
		}
		tables = append(tables, table)
	}
	for _, table := range tables {
		if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return nil
}

// PruneOlderThan deletes records created before now-age, regardless of expiry.
func (s *Store) PruneOlderThan(ctx context.Context, domain storage.Domain, age time.Duration) (int64, error) {
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}
	table, err := domainTable(domain)
	if err != nil {
		return 0, err
	}
	if age < 0 {
		return 0, fmt.Errorf("prune age must not be negative")
	}

	cutoff := timeToUnixMillis(s.now().Add(-age))
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM `+table+` WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache entries: %w", err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cache entries: %w", err)
	}
	return pruned, nil
}

// ExecuteTransaction applies the batch inside one SQLite transaction. Any
// statement failure rolls back every effect of the batch.
func (s *Store) ExecuteTransaction(ctx context.Context, statements []storage.Statement) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	for _, statement := range statements {
		if err := statement.Validate(); err != nil {
			return err
		}
	}
	if len(statements) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	now := s.now()
	for _, statement := range statements {
		if err := applyStatement(ctx, tx, statement, now); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func applyStatement(ctx context.Context, tx *sql.Tx, statement storage.Statement, now time.Time) error {
	table := string(statement.Domain)
	switch statement.Op {
	case storage.StatementPut:
		_, err := tx.ExecContext(
			ctx,
			`INSERT INTO `+table+` (cache_key, payload, created_at, expires_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(cache_key) DO UPDATE SET
			   payload = excluded.payload,
			   created_at = excluded.created_at,
			   expires_at = excluded.expires_at`,
			statement.Key,
			statement.Payload,
			timeToUnixMillis(now),
			timeToUnixMillis(now.Add(statement.TTL)),
		)
		if err != nil {
			return fmt.Errorf("transaction put %s: %w", table, err)
		}
	case storage.StatementDelete:
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE cache_key = ?`, statement.Key); err != nil {
			return fmt.Errorf("transaction delete %s: %w", table, err)
		}
	case storage.StatementClear:
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("transaction clear %s: %w", table, err)
		}
	}
	return nil
}

// Stats reports the live record count for every cache domain.
func (s *Store) Stats(ctx context.Context) (map[storage.Domain]int64, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	stats := make(map[storage.Domain]int64, len(storage.CacheDomains()))
	for _, domain := range storage.CacheDomains() {
		count, err := s.Count(ctx, domain)
		if err != nil {
			return nil, err
		}
		stats[domain] = count
	}
	return stats, nil
}

func timeToUnixMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func unixMillisToTime(value int64) time.Time {
	if value <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(value).UTC()
}

var _ storage.Store = (*Store)(nil)
