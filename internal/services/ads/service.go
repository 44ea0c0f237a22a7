package ads

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adbridge-io/adbridge/internal/services/cache"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// TTLConfig holds per-entity cache lifetimes.
type TTLConfig struct {
	Campaigns   time.Duration
	Keywords    time.Duration
	SearchTerms time.Duration
	Budgets     time.Duration
	AccountKPIs time.Duration
}

// DefaultTTLs balances freshness against quota. Budgets are short-lived
// because they are the one entity this service mutates.
func DefaultTTLs() TTLConfig {
	return TTLConfig{
		Campaigns:   15 * time.Minute,
		Keywords:    30 * time.Minute,
		SearchTerms: time.Hour,
		Budgets:     5 * time.Minute,
		AccountKPIs: 15 * time.Minute,
	}
}

// Service answers reporting queries through the cache and forwards
// budget mutations upstream.
type Service struct {
	client Client
	cache  *cache.Manager
	log    zerolog.Logger
	ttl    TTLConfig
}

// NewService wires a client to a cache manager.
func NewService(client Client, manager *cache.Manager, log zerolog.Logger, ttl TTLConfig) *Service {
	if ttl == (TTLConfig{}) {
		ttl = DefaultTTLs()
	}
	return &Service{client: client, cache: manager, log: log, ttl: ttl}
}

// Cache exposes the manager for callers that operate on the store
// directly, such as admin tooling.
func (s *Service) Cache() *cache.Manager {
	return s.cache
}

// fetch runs the read-through pattern for one entity type: cache lookup,
// upstream call on miss, then store.
func fetch[T any](ctx context.Context, s *Service, entity storage.EntityType, customerID string, scope map[string]any, ttl time.Duration, load func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	payload, found, err := s.cache.GetEntityData(ctx, entity, customerID, scope)
	if err != nil {
		return zero, fmt.Errorf("read %s cache: %w", entity, err)
	}
	if found {
		var cached T
		if err := json.Unmarshal(payload, &cached); err != nil {
			return zero, fmt.Errorf("decode cached %s: %w", entity, err)
		}
		s.log.Debug().Str("entity", string(entity)).Str("customer_id", customerID).Msg("cache hit")
		return cached, nil
	}

	fresh, err := load(ctx)
	if err != nil {
		return zero, err
	}

	encoded, err := json.Marshal(fresh)
	if err != nil {
		return zero, fmt.Errorf("encode %s: %w", entity, err)
	}
	if _, err := s.cache.StoreEntityData(ctx, entity, customerID, encoded, ttl, scope); err != nil {
		return zero, fmt.Errorf("store %s cache: %w", entity, err)
	}
	s.log.Debug().Str("entity", string(entity)).Str("customer_id", customerID).Msg("cache miss")
	return fresh, nil
}

// Campaigns returns campaign rows for the date range.
func (s *Service) Campaigns(ctx context.Context, customerID, startDate, endDate string) ([]Campaign, error) {
	customerID, err := CleanCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	scope := map[string]any{"start_date": startDate, "end_date": endDate}
	return fetch(ctx, s, storage.EntityCampaign, customerID, scope, s.ttl.Campaigns, func(ctx context.Context) ([]Campaign, error) {
		return s.client.SearchCampaigns(ctx, customerID, startDate, endDate)
	})
}

// Keywords returns keyword rows for the date range.
func (s *Service) Keywords(ctx context.Context, customerID, startDate, endDate string) ([]Keyword, error) {
	customerID, err := CleanCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	scope := map[string]any{"start_date": startDate, "end_date": endDate}
	return fetch(ctx, s, storage.EntityKeyword, customerID, scope, s.ttl.Keywords, func(ctx context.Context) ([]Keyword, error) {
		return s.client.SearchKeywords(ctx, customerID, startDate, endDate)
	})
}

// SearchTerms returns search term rows for the date range.
func (s *Service) SearchTerms(ctx context.Context, customerID, startDate, endDate string) ([]SearchTerm, error) {
	customerID, err := CleanCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return nil, err
	}
	scope := map[string]any{"start_date": startDate, "end_date": endDate}
	return fetch(ctx, s, storage.EntitySearchTerm, customerID, scope, s.ttl.SearchTerms, func(ctx context.Context) ([]SearchTerm, error) {
		return s.client.SearchTerms(ctx, customerID, startDate, endDate)
	})
}

// Budgets returns the account's campaign budgets with current spend.
func (s *Service) Budgets(ctx context.Context, customerID string) ([]Budget, error) {
	customerID, err := CleanCustomerID(customerID)
	if err != nil {
		return nil, err
	}
	return fetch(ctx, s, storage.EntityBudget, customerID, nil, s.ttl.Budgets, func(ctx context.Context) ([]Budget, error) {
		return s.client.SearchBudgets(ctx, customerID)
	})
}

// AccountKPIs returns aggregated account metrics for the date range.
func (s *Service) AccountKPIs(ctx context.Context, customerID, startDate, endDate string) (AccountKPI, error) {
	customerID, err := CleanCustomerID(customerID)
	if err != nil {
		return AccountKPI{}, err
	}
	if err := ValidateDateRange(startDate, endDate); err != nil {
		return AccountKPI{}, err
	}
	scope := map[string]any{"start_date": startDate, "end_date": endDate}
	return fetch(ctx, s, storage.EntityAccountKPI, customerID, scope, s.ttl.AccountKPIs, func(ctx context.Context) (AccountKPI, error) {
		return s.client.SearchAccountKPIs(ctx, customerID, startDate, endDate)
	})
}

// UpdateBudget sets a budget's amount upstream and drops every cached
// budget row so the next read reflects the change.
func (s *Service) UpdateBudget(ctx context.Context, customerID, budgetID string, amountMicros int64) (BudgetUpdate, error) {
	customerID, err := CleanCustomerID(customerID)
	if err != nil {
		return BudgetUpdate{}, err
	}
	if err := ValidateNumericID("budget", budgetID); err != nil {
		return BudgetUpdate{}, err
	}
	if amountMicros <= 0 {
		return BudgetUpdate{}, fmt.Errorf("amount micros must be positive, got %d", amountMicros)
	}

	update, err := s.client.MutateBudget(ctx, customerID, budgetID, amountMicros)
	if err != nil {
		return BudgetUpdate{}, fmt.Errorf("mutate budget %s: %w", budgetID, err)
	}

	if err := s.cache.Invalidate(ctx, storage.EntityBudget); err != nil {
		return BudgetUpdate{}, fmt.Errorf("invalidate budget cache: %w", err)
	}
	s.log.Info().
		Str("customer_id", customerID).
		Str("budget_id", budgetID).
		Int64("amount_micros", amountMicros).
		Msg("budget updated")
	return update, nil
}
