// Package storage defines the backend-agnostic contract for the cache and
// configuration store.
//
// One logical table backs every cache domain; payloads are opaque serialized
// blobs the store returns unmodified. Concrete backends live in the sqlite
// and memory subpackages and are selected through the cache service factory.
package storage

import (
	"context"
	"fmt"
	"time"
)

// Domain names one cache namespace with its own key space.
type Domain string

const (
	// DomainAPICache holds raw upstream API responses keyed by call signature.
	DomainAPICache Domain = "api_cache"
	// DomainAccountKPICache holds aggregated account KPI snapshots.
	DomainAccountKPICache Domain = "account_kpi_cache"
	// DomainCampaignCache holds per-customer campaign rows.
	DomainCampaignCache Domain = "campaign_cache"
	// DomainKeywordCache holds per-customer keyword rows.
	DomainKeywordCache Domain = "keyword_cache"
	// DomainSearchTermCache holds per-customer search term rows.
	DomainSearchTermCache Domain = "search_term_cache"
	// DomainBudgetCache holds per-customer budget rows.
	DomainBudgetCache Domain = "budget_cache"
)

// CacheDomains returns every known cache domain in stable order.
func CacheDomains() []Domain {
	return []Domain{
		DomainAPICache,
		DomainAccountKPICache,
		DomainCampaignCache,
		DomainKeywordCache,
		DomainSearchTermCache,
		DomainBudgetCache,
	}
}

// ValidDomain reports whether the domain belongs to the known set.
func ValidDomain(domain Domain) bool {
	switch domain {
	case DomainAPICache, DomainAccountKPICache, DomainCampaignCache,
		DomainKeywordCache, DomainSearchTermCache, DomainBudgetCache:
		return true
	}
	return false
}

// EntityType is a cacheable upstream entity kind.
type EntityType string

const (
	EntityCampaign   EntityType = "campaign"
	EntityKeyword    EntityType = "keyword"
	EntitySearchTerm EntityType = "search_term"
	EntityBudget     EntityType = "budget"
	EntityAccountKPI EntityType = "account_kpi"
)

// Domain maps an entity type to its cache domain.
func (t EntityType) Domain() (Domain, bool) {
	switch t {
	case EntityCampaign:
		return DomainCampaignCache, true
	case EntityKeyword:
		return DomainKeywordCache, true
	case EntitySearchTerm:
		return DomainSearchTermCache, true
	case EntityBudget:
		return DomainBudgetCache, true
	case EntityAccountKPI:
		return DomainAccountKPICache, true
	}
	return "", false
}

// AccessLevel orders account permissions as read < write < admin.
type AccessLevel string

const (
	AccessRead  AccessLevel = "read"
	AccessWrite AccessLevel = "write"
	AccessAdmin AccessLevel = "admin"
)

// ParseAccessLevel validates a textual access level.
func ParseAccessLevel(value string) (AccessLevel, error) {
	switch AccessLevel(value) {
	case AccessRead, AccessWrite, AccessAdmin:
		return AccessLevel(value), nil
	}
	return "", fmt.Errorf("access level %q is not one of read, write, admin", value)
}

// rank returns the numeric position in the hierarchy; unknown levels rank 0.
func (l AccessLevel) rank() int {
	switch l {
	case AccessRead:
		return 1
	case AccessWrite:
		return 2
	case AccessAdmin:
		return 3
	}
	return 0
}

// AtLeast reports whether l grants everything required does.
func (l AccessLevel) AtLeast(required AccessLevel) bool {
	return l.rank() >= required.rank() && required.rank() > 0
}

// AccountGrant records one user's effective access to one customer account.
// A later grant for the same pair replaces the prior one.
type AccountGrant struct {
	UserID     string
	CustomerID string
	Level      AccessLevel
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// StatementOp identifies one write inside a transaction batch.
type StatementOp string

const (
	// StatementPut upserts a cache record.
	StatementPut StatementOp = "put"
	// StatementDelete removes a cache record by key.
	StatementDelete StatementOp = "delete"
	// StatementClear empties one cache domain.
	StatementClear StatementOp = "clear"
)

// Statement is one parameterized write in a transaction batch. The batch is
// ephemeral: it exists only for the duration of ExecuteTransaction.
type Statement struct {
	Op      StatementOp
	Domain  Domain
	Key     string
	Payload []byte
	TTL     time.Duration
}

// Validate rejects malformed statements before any backend I/O happens.
func (s Statement) Validate() error {
	if !ValidDomain(s.Domain) {
		return fmt.Errorf("unknown cache domain %q", s.Domain)
	}
	switch s.Op {
	case StatementPut:
		if s.Key == "" {
			return fmt.Errorf("put statement requires a key")
		}
		if s.TTL <= 0 {
			return fmt.Errorf("put statement requires a positive ttl")
		}
	case StatementDelete:
		if s.Key == "" {
			return fmt.Errorf("delete statement requires a key")
		}
	case StatementClear:
	default:
		return fmt.Errorf("unknown statement op %q", s.Op)
	}
	return nil
}

// Store is the contract every cache backend fulfills.
//
// Reads surface absence as a found bool; expired records are deleted on read
// and reported as absent. Validation failures are returned before any I/O.
// Backend I/O failures propagate untouched: this layer never retries and
// never logs.
type Store interface {
	Close() error

	// Cache primitives.
	Put(ctx context.Context, domain Domain, key string, payload []byte, ttl time.Duration) error
	Get(ctx context.Context, domain Domain, key string) ([]byte, bool, error)
	Delete(ctx context.Context, domain Domain, key string) error
	Count(ctx context.Context, domain Domain) (int64, error)
	// Clear empties the given domains, or every cache domain when none are given.
	Clear(ctx context.Context, domains ...Domain) error
	// PruneOlderThan deletes records created before now-age and returns how
	// many were removed. It does not consult expiry.
	PruneOlderThan(ctx context.Context, domain Domain, age time.Duration) (int64, error)
	// ExecuteTransaction applies the batch atomically; any failure rolls the
	// whole batch back and no partial effect remains observable.
	ExecuteTransaction(ctx context.Context, statements []Statement) error

	// User profiles, last-write-wins per user id.
	PutUserProfile(ctx context.Context, userID string, payload []byte) error
	GetUserProfile(ctx context.Context, userID string) ([]byte, bool, error)

	// Account access grants.
	GrantAccountAccess(ctx context.Context, userID, customerID string, level AccessLevel) error
	ListUserAccounts(ctx context.Context, userID string) ([]AccountGrant, error)
	CheckAccountAccess(ctx context.Context, userID, customerID string, required AccessLevel) (bool, error)

	// Two-tier configuration: empty userID addresses the system scope.
	PutConfig(ctx context.Context, key string, payload []byte, userID string) error
	GetConfig(ctx context.Context, key string, userID string) ([]byte, bool, error)

	// Stats returns the live record count per cache domain.
	Stats(ctx context.Context) (map[Domain]int64, error)
}
