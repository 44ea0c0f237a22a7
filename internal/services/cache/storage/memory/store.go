// Package memory implements the cache store contract with in-process maps.
//
// It backs tests and single-shot invocations where persistence across
// restarts is not worth a database file. Semantics mirror the sqlite
// backend: lazy expiry on read, last-write-wins upserts, atomic batches.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

type record struct {
	payload   []byte
	createdAt time.Time
	expiresAt time.Time
}

type profile struct {
	payload   []byte
	createdAt time.Time
	updatedAt time.Time
}

type grant struct {
	level     storage.AccessLevel
	createdAt time.Time
	updatedAt time.Time
}

// Store keeps every domain in a mutex-guarded map.
type Store struct {
	mu           sync.Mutex
	domains      map[storage.Domain]map[string]record
	profiles     map[string]profile
	grants       map[string]map[string]grant
	systemConfig map[string][]byte
	userConfig   map[string]map[string][]byte
	now          func() time.Time
}

// New returns an empty in-memory store.
func New() *Store {
	domains := make(map[storage.Domain]map[string]record, len(storage.CacheDomains()))
	for _, domain := range storage.CacheDomains() {
		domains[domain] = make(map[string]record)
	}
	return &Store{
		domains:      domains,
		profiles:     make(map[string]profile),
		grants:       make(map[string]map[string]grant),
		systemConfig: make(map[string][]byte),
		userConfig:   make(map[string]map[string][]byte),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op; the maps are garbage collected with the store.
func (s *Store) Close() error {
	return nil
}

func clonePayload(payload []byte) []byte {
	if payload == nil {
		return nil
	}
	cloned := make([]byte, len(payload))
	copy(cloned, payload)
	return cloned
}

// Put upserts a cache record valid for [now, now+ttl).
func (s *Store) Put(ctx context.Context, domain storage.Domain, key string, payload []byte, ttl time.Duration) error {
	if !storage.ValidDomain(domain) {
		return fmt.Errorf("unknown cache domain %q", domain)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("cache key is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	s.domains[domain][key] = record{
		payload:   clonePayload(payload),
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Get returns a payload, deleting and missing when the record expired.
func (s *Store) Get(ctx context.Context, domain storage.Domain, key string) ([]byte, bool, error) {
	if !storage.ValidDomain(domain) {
		return nil, false, fmt.Errorf("unknown cache domain %q", domain)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("cache key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.domains[domain][key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(rec.expiresAt) {
		delete(s.domains[domain], key)
		return nil, false, nil
	}
	return clonePayload(rec.payload), true, nil
}

// Delete removes a record by key.
func (s *Store) Delete(ctx context.Context, domain storage.Domain, key string) error {
	if !storage.ValidDomain(domain) {
		return fmt.Errorf("unknown cache domain %q", domain)
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("cache key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.domains[domain], key)
	return nil
}

// Count returns the number of records in a domain.
func (s *Store) Count(ctx context.Context, domain storage.Domain) (int64, error) {
	if !storage.ValidDomain(domain) {
		return 0, fmt.Errorf("unknown cache domain %q", domain)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.domains[domain])), nil
}

// Clear empties the given domains, or every cache domain when none are given.
func (s *Store) Clear(ctx context.Context, domains ...storage.Domain) error {
	if len(domains) == 0 {
		domains = storage.CacheDomains()
	}
	for _, domain := range domains {
		if !storage.ValidDomain(domain) {
			return fmt.Errorf("unknown cache domain %q", domain)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, domain := range domains {
		s.domains[domain] = make(map[string]record)
	}
	return nil
}

// PruneOlderThan deletes records created before now-age.
func (s *Store) PruneOlderThan(ctx context.Context, domain storage.Domain, age time.Duration) (int64, error) {
	if !storage.ValidDomain(domain) {
		return 0, fmt.Errorf("unknown cache domain %q", domain)
	}
	if age < 0 {
		return 0, fmt.Errorf("prune age must not be negative")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-age)
	var pruned int64
	for key, rec := range s.domains[domain] {
		if rec.createdAt.Before(cutoff) {
			delete(s.domains[domain], key)
			pruned++
		}
	}
	return pruned, nil
}

// ExecuteTransaction validates the whole batch up front, then applies it
// under the lock. Validation is the only failure mode for map writes, so
// checking first keeps the batch all-or-nothing.
func (s *Store) ExecuteTransaction(ctx context.Context, statements []storage.Statement) error {
	for _, statement := range statements {
		if err := statement.Validate(); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for _, statement := range statements {
		switch statement.Op {
		case storage.StatementPut:
			s.domains[statement.Domain][statement.Key] = record{
				payload:   clonePayload(statement.Payload),
				createdAt: now,
				expiresAt: now.Add(statement.TTL),
			}
		case storage.StatementDelete:
			delete(s.domains[statement.Domain], statement.Key)
		case storage.StatementClear:
			s.domains[statement.Domain] = make(map[string]record)
		}
	}
	return nil
}

// PutUserProfile upserts a user profile; last write wins.
func (s *Store) PutUserProfile(ctx context.Context, userID string, payload []byte) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	existing, ok := s.profiles[userID]
	createdAt := now
	if ok {
		createdAt = existing.createdAt
	}
	s.profiles[userID] = profile{payload: clonePayload(payload), createdAt: createdAt, updatedAt: now}
	return nil
}

// GetUserProfile loads a profile payload by user id.
func (s *Store) GetUserProfile(ctx context.Context, userID string) ([]byte, bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, false, fmt.Errorf("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.profiles[userID]
	if !ok {
		return nil, false, nil
	}
	return clonePayload(rec.payload), true, nil
}

// GrantAccountAccess records an access level, replacing any prior grant.
func (s *Store) GrantAccountAccess(ctx context.Context, userID, customerID string, level storage.AccessLevel) error {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	accounts, ok := s.grants[userID]
	if !ok {
		accounts = make(map[string]grant)
		s.grants[userID] = accounts
	}
	createdAt := now
	if existing, ok := accounts[customerID]; ok {
		createdAt = existing.createdAt
	}
	accounts[customerID] = grant{level: level, createdAt: createdAt, updatedAt: now}
	return nil
}

// ListUserAccounts returns every grant held by a user, ordered by account.
func (s *Store) ListUserAccounts(ctx context.Context, userID string) ([]storage.AccountGrant, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	accounts := s.grants[userID]
	customerIDs := make([]string, 0, len(accounts))
	for customerID := range accounts {
		customerIDs = append(customerIDs, customerID)
	}
	sort.Strings(customerIDs)

	grants := make([]storage.AccountGrant, 0, len(customerIDs))
	for _, customerID := range customerIDs {
		rec := accounts[customerID]
		grants = append(grants, storage.AccountGrant{
			UserID:     userID,
			CustomerID: customerID,
			Level:      rec.level,
			CreatedAt:  rec.createdAt,
			UpdatedAt:  rec.updatedAt,
		})
	}
	return grants, nil
}

// CheckAccountAccess reports whether a grant covers the required level.
func (s *Store) CheckAccountAccess(ctx context.Context, userID, customerID string, required storage.AccessLevel) (bool, error) {
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

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.grants[userID][customerID]
	if !ok {
		return false, nil
	}
	return rec.level.AtLeast(required), nil
}

// PutConfig stores a payload in the system scope (empty userID) or the
// user scope; the scopes never overwrite each other.
func (s *Store) PutConfig(ctx context.Context, key string, payload []byte, userID string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("config key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	if userID == "" {
		s.systemConfig[key] = clonePayload(payload)
		return nil
	}
	scoped, ok := s.userConfig[userID]
	if !ok {
		scoped = make(map[string][]byte)
		s.userConfig[userID] = scoped
	}
	scoped[key] = clonePayload(payload)
	return nil
}

// GetConfig resolves user scope first, then system scope.
func (s *Store) GetConfig(ctx context.Context, key string, userID string) ([]byte, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, false, fmt.Errorf("config key is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	userID = strings.TrimSpace(userID)
	if userID != "" {
		if payload, ok := s.userConfig[userID][key]; ok {
			return clonePayload(payload), true, nil
		}
	}
	if payload, ok := s.systemConfig[key]; ok {
		return clonePayload(payload), true, nil
	}
	return nil, false, nil
}

// Stats reports the record count for every cache domain.
func (s *Store) Stats(ctx context.Context) (map[storage.Domain]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := make(map[storage.Domain]int64, len(s.domains))
	for domain, records := range s.domains {
		stats[domain] = int64(len(records))
	}
	return stats, nil
}

var _ storage.Store = (*Store)(nil)
