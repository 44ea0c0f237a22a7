// Package cache exposes the entity-level caching API and the backend factory.
//
// It layers composite-key construction and entity-type validation over the
// raw storage contract; callers decide caching policy at each call site by
// asking for a key, reading, and writing explicitly.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/adbridge-io/adbridge/internal/services/cache/cachekey"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage/memory"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage/sqlite"
)

// Backend selects a storage implementation.
type Backend string

const (
	// BackendSQLite persists to a single SQLite file.
	BackendSQLite Backend = "sqlite"
	// BackendMemory keeps everything in process memory.
	BackendMemory Backend = "memory"
)

// Config carries backend-specific settings.
type Config struct {
	// Path is the database file location; required for the sqlite backend.
	Path string
}

// OpenStore returns a concrete store for the chosen backend. Callers own the
// returned store and must Close it.
func OpenStore(backend Backend, cfg Config) (storage.Store, error) {
	switch backend {
	case BackendSQLite:
		return sqlite.Open(cfg.Path)
	case BackendMemory:
		return memory.New(), nil
	}
	return nil, fmt.Errorf("backend %q is not supported", backend)
}

// Manager wraps a store with entity-type validation and key construction.
type Manager struct {
	store storage.Store
}

// NewManager builds an entity cache manager over an open store.
func NewManager(store storage.Store) *Manager {
	return &Manager{store: store}
}

// Store exposes the underlying store for primitive operations.
func (m *Manager) Store() storage.Store {
	return m.store
}

// entityKey derives the composite key for one entity snapshot.
func entityKey(entityType storage.EntityType, customerID string, scope map[string]any) string {
	return cachekey.Generate(string(entityType), []any{customerID}, scope)
}

// StoreEntityData caches an entity payload and returns the key used.
// Unknown entity types fail validation before any storage I/O.
func (m *Manager) StoreEntityData(ctx context.Context, entityType storage.EntityType, customerID string, payload []byte, ttl time.Duration, scope map[string]any) (string, error) {
	if m == nil || m.store == nil {
		return "", fmt.Errorf("cache manager is not configured")
	}
	domain, ok := entityType.Domain()
	if !ok {
		return "", fmt.Errorf("unknown entity type %q", entityType)
	}
	if customerID == "" {
		return "", fmt.Errorf("customer id is required")
	}

	key := entityKey(entityType, customerID, scope)
	if err := m.store.Put(ctx, domain, key, payload, ttl); err != nil {
		return "", err
	}
	return key, nil
}

// GetEntityData loads a cached entity payload, absent on miss or expiry.
func (m *Manager) GetEntityData(ctx context.Context, entityType storage.EntityType, customerID string, scope map[string]any) ([]byte, bool, error) {
	if m == nil || m.store == nil {
		return nil, false, fmt.Errorf("cache manager is not configured")
	}
	domain, ok := entityType.Domain()
	if !ok {
		return nil, false, fmt.Errorf("unknown entity type %q", entityType)
	}
	if customerID == "" {
		return nil, false, fmt.Errorf("customer id is required")
	}

	return m.store.Get(ctx, domain, entityKey(entityType, customerID, scope))
}

// StoreAPIResponse caches a raw upstream response keyed by call signature.
func (m *Manager) StoreAPIResponse(ctx context.Context, method, customerID string, params map[string]any, payload []byte, ttl time.Duration) (string, error) {
	if m == nil || m.store == nil {
		return "", fmt.Errorf("cache manager is not configured")
	}
	if method == "" {
		return "", fmt.Errorf("method name is required")
	}
	if customerID == "" {
		return "", fmt.Errorf("customer id is required")
	}

	key := cachekey.Generate(method, []any{customerID}, params)
	if err := m.store.Put(ctx, storage.DomainAPICache, key, payload, ttl); err != nil {
		return "", err
	}
	return key, nil
}

// GetAPIResponse loads a cached upstream response, absent on miss or expiry.
func (m *Manager) GetAPIResponse(ctx context.Context, method, customerID string, params map[string]any) ([]byte, bool, error) {
	if m == nil || m.store == nil {
		return nil, false, fmt.Errorf("cache manager is not configured")
	}
	if method == "" {
		return nil, false, fmt.Errorf("method name is required")
	}
	if customerID == "" {
		return nil, false, fmt.Errorf("customer id is required")
	}

	return m.store.Get(ctx, storage.DomainAPICache, cachekey.Generate(method, []any{customerID}, params))
}

// Invalidate clears the cache domain an entity mutation touched.
func (m *Manager) Invalidate(ctx context.Context, entityType storage.EntityType) error {
	if m == nil || m.store == nil {
		return fmt.Errorf("cache manager is not configured")
	}
	domain, ok := entityType.Domain()
	if !ok {
		return fmt.Errorf("unknown entity type %q", entityType)
	}
	return m.store.Clear(ctx, domain)
}
