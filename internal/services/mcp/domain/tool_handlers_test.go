package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/cache"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage/memory"
)

type stubClient struct {
	campaigns []ads.Campaign
	budgets   []ads.Budget
}

func (s *stubClient) SearchCampaigns(ctx context.Context, customerID, startDate, endDate string) ([]ads.Campaign, error) {
	return s.campaigns, nil
}

func (s *stubClient) SearchKeywords(ctx context.Context, customerID, startDate, endDate string) ([]ads.Keyword, error) {
	return nil, nil
}

func (s *stubClient) SearchTerms(ctx context.Context, customerID, startDate, endDate string) ([]ads.SearchTerm, error) {
	return nil, nil
}

func (s *stubClient) SearchBudgets(ctx context.Context, customerID string) ([]ads.Budget, error) {
	return s.budgets, nil
}

func (s *stubClient) SearchAccountKPIs(ctx context.Context, customerID, startDate, endDate string) (ads.AccountKPI, error) {
	return ads.AccountKPI{Impressions: 100, Clicks: 10}, nil
}

func (s *stubClient) MutateBudget(ctx context.Context, customerID, budgetID string, amountMicros int64) (ads.BudgetUpdate, error) {
	return ads.BudgetUpdate{BudgetID: budgetID, AmountMicros: amountMicros}, nil
}

type fixture struct {
	guard *Guard
	svc   *ads.Service
	store storage.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	manager := cache.NewManager(store)
	client := &stubClient{
		campaigns: []ads.Campaign{{ID: "1", Name: "Brand", CostMicros: 1_000_000}},
		budgets:   []ads.Budget{{ID: "77", AmountMicros: 5_000_000}},
	}
	return &fixture{
		guard: &Guard{Store: store, Operator: "operator"},
		svc:   ads.NewService(client, manager, zerolog.Nop(), ads.DefaultTTLs()),
		store: store,
	}
}

func (f *fixture) grant(t *testing.T, userID, customerID string, level storage.AccessLevel) {
	t.Helper()
	if err := f.store.GrantAccountAccess(context.Background(), userID, customerID, level); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

func TestCampaignsHandlerDeniesWithoutGrant(t *testing.T) {
	f := newFixture(t)
	ctx := WithUser(context.Background(), "stranger")

	_, _, err := CampaignsHandler(f.svc, f.guard)(ctx, nil, DateRangeInput{CustomerID: "1234567890"})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}
}

func TestCampaignsHandlerDeniesUnauthenticated(t *testing.T) {
	f := newFixture(t)
	_, _, err := CampaignsHandler(f.svc, f.guard)(context.Background(), nil, DateRangeInput{CustomerID: "1234567890"})
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("err = %v, want ErrUnauthenticated", err)
	}
}

func TestCampaignsHandlerServesReader(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "reader", "1234567890", storage.AccessRead)
	ctx := WithUser(context.Background(), "reader")

	_, result, err := CampaignsHandler(f.svc, f.guard)(ctx, nil, DateRangeInput{
		CustomerID: "123-456-7890",
		StartDate:  "2026-08-01",
		EndDate:    "2026-08-21",
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if len(result.Campaigns) != 1 || result.Campaigns[0].Name != "Brand" {
		t.Fatalf("campaigns = %+v", result.Campaigns)
	}
	if len(result.Table.Rows) != 1 {
		t.Fatalf("table rows = %d, want 1", len(result.Table.Rows))
	}
}

func TestUpdateBudgetHandlerRequiresWrite(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "reader", "1234567890", storage.AccessRead)
	ctx := WithUser(context.Background(), "reader")

	_, _, err := UpdateBudgetHandler(f.svc, f.guard)(ctx, nil, UpdateBudgetInput{
		CustomerID:   "1234567890",
		BudgetID:     "77",
		AmountMicros: 2_000_000,
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}

	f.grant(t, "writer", "1234567890", storage.AccessWrite)
	ctx = WithUser(context.Background(), "writer")
	_, result, err := UpdateBudgetHandler(f.svc, f.guard)(ctx, nil, UpdateBudgetInput{
		CustomerID:   "1234567890",
		BudgetID:     "77",
		AmountMicros: 2_000_000,
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if result.AmountFormatted != "$2.00" {
		t.Fatalf("amount formatted = %q, want $2.00", result.AmountFormatted)
	}
}

func TestGrantAccessHandlerBootstrapsThroughOperator(t *testing.T) {
	f := newFixture(t)

	// A regular user cannot grant on an account they do not administer.
	ctx := WithUser(context.Background(), "alice")
	_, _, err := GrantAccessHandler(f.guard)(ctx, nil, GrantAccessInput{
		UserID:     "bob",
		CustomerID: "1234567890",
		Level:      "read",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}

	// The operator seeds the first admin.
	ctx = WithUser(context.Background(), "operator")
	_, _, err = GrantAccessHandler(f.guard)(ctx, nil, GrantAccessInput{
		UserID:     "alice",
		CustomerID: "1234567890",
		Level:      "admin",
	})
	if err != nil {
		t.Fatalf("operator grant: %v", err)
	}

	// The seeded admin can now grant.
	ctx = WithUser(context.Background(), "alice")
	_, result, err := GrantAccessHandler(f.guard)(ctx, nil, GrantAccessInput{
		UserID:     "bob",
		CustomerID: "123-456-7890",
		Level:      "read",
	})
	if err != nil {
		t.Fatalf("admin grant: %v", err)
	}
	if result.Level != "read" || result.CustomerID != "1234567890" {
		t.Fatalf("result = %+v", result)
	}

	ok, err := f.store.CheckAccountAccess(context.Background(), "bob", "1234567890", storage.AccessRead)
	if err != nil || !ok {
		t.Fatalf("bob read check: ok=%v err=%v", ok, err)
	}

	// Granting seeds a profile for a first-seen user.
	_, found, err := f.store.GetUserProfile(context.Background(), "bob")
	if err != nil || !found {
		t.Fatalf("bob profile: found=%v err=%v", found, err)
	}
}

func TestListAccountsHandler(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "alice", "1111111111", storage.AccessRead)
	f.grant(t, "alice", "2222222222", storage.AccessAdmin)

	ctx := WithUser(context.Background(), "alice")
	_, result, err := ListAccountsHandler(f.guard)(ctx, nil, ListAccountsInput{})
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(result.Accounts) != 2 {
		t.Fatalf("accounts = %+v, want 2 entries", result.Accounts)
	}

	ctx = WithUser(context.Background(), "nobody")
	_, result, err = ListAccountsHandler(f.guard)(ctx, nil, ListAccountsInput{})
	if err != nil {
		t.Fatalf("empty list: %v", err)
	}
	if len(result.Accounts) != 0 {
		t.Fatalf("accounts = %+v, want none", result.Accounts)
	}
}

func TestGrantAccessHandlerRejectsUnknownLevel(t *testing.T) {
	f := newFixture(t)
	ctx := WithUser(context.Background(), "operator")
	_, _, err := GrantAccessHandler(f.guard)(ctx, nil, GrantAccessInput{
		UserID:     "bob",
		CustomerID: "1234567890",
		Level:      "owner",
	})
	if err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestCheckAccessHandlerSelfAndOther(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "alice", "1234567890", storage.AccessWrite)

	// Self check needs no extra privilege.
	ctx := WithUser(context.Background(), "alice")
	_, result, err := CheckAccessHandler(f.guard)(ctx, nil, CheckAccessInput{
		CustomerID: "1234567890",
		Level:      "write",
	})
	if err != nil {
		t.Fatalf("self check: %v", err)
	}
	if !result.Granted || result.UserID != "alice" {
		t.Fatalf("result = %+v", result)
	}

	// Checking another user requires admin on the account.
	_, _, err = CheckAccessHandler(f.guard)(ctx, nil, CheckAccessInput{
		UserID:     "bob",
		CustomerID: "1234567890",
		Level:      "read",
	})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}

	ctx = WithUser(context.Background(), "operator")
	_, result, err = CheckAccessHandler(f.guard)(ctx, nil, CheckAccessInput{
		UserID:     "alice",
		CustomerID: "1234567890",
		Level:      "admin",
	})
	if err != nil {
		t.Fatalf("operator check: %v", err)
	}
	if result.Granted {
		t.Fatal("write grant must not report admin")
	}
}

func TestSetConfigSystemScopeRequiresOperator(t *testing.T) {
	f := newFixture(t)

	ctx := WithUser(context.Background(), "alice")
	_, _, err := SetConfigHandler(f.guard)(ctx, nil, SetConfigInput{Key: "k", Value: "v", System: true})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}

	ctx = WithUser(context.Background(), "operator")
	_, result, err := SetConfigHandler(f.guard)(ctx, nil, SetConfigInput{Key: "k", Value: "sys", System: true})
	if err != nil {
		t.Fatalf("system set: %v", err)
	}
	if result.Scope != "system" {
		t.Fatalf("scope = %q, want system", result.Scope)
	}
}

func TestConfigUserScopeWithSystemFallback(t *testing.T) {
	f := newFixture(t)

	ctx := WithUser(context.Background(), "operator")
	if _, _, err := SetConfigHandler(f.guard)(ctx, nil, SetConfigInput{Key: "report_currency", Value: "USD", System: true}); err != nil {
		t.Fatalf("system set: %v", err)
	}

	ctx = WithUser(context.Background(), "alice")
	if _, _, err := SetConfigHandler(f.guard)(ctx, nil, SetConfigInput{Key: "report_currency", Value: "EUR"}); err != nil {
		t.Fatalf("user set: %v", err)
	}

	_, result, err := GetConfigHandler(f.guard)(ctx, nil, GetConfigInput{Key: "report_currency"})
	if err != nil {
		t.Fatalf("get user scope: %v", err)
	}
	if !result.Found || result.Value != "EUR" {
		t.Fatalf("result = %+v", result)
	}

	ctx = WithUser(context.Background(), "bob")
	_, result, err = GetConfigHandler(f.guard)(ctx, nil, GetConfigInput{Key: "report_currency"})
	if err != nil {
		t.Fatalf("get fallback: %v", err)
	}
	if !result.Found || result.Value != "USD" {
		t.Fatalf("fallback result = %+v", result)
	}
}

func TestCacheStatsAndClear(t *testing.T) {
	f := newFixture(t)
	f.grant(t, "reader", "1234567890", storage.AccessRead)

	// Warm the campaign cache through the reporting tool.
	ctx := WithUser(context.Background(), "reader")
	if _, _, err := CampaignsHandler(f.svc, f.guard)(ctx, nil, DateRangeInput{
		CustomerID: "1234567890",
		StartDate:  "2026-08-01",
		EndDate:    "2026-08-21",
	}); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	_, stats, err := CacheStatsHandler(f.guard)(ctx, nil, CacheStatsInput{})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.Counts["campaign_cache"] != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	// Clearing is reserved for the operator.
	_, _, err = ClearCacheHandler(f.guard)(ctx, nil, ClearCacheInput{})
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want ErrAccessDenied", err)
	}

	ctx = WithUser(context.Background(), "operator")
	_, cleared, err := ClearCacheHandler(f.guard)(ctx, nil, ClearCacheInput{Domain: "campaign_cache"})
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(cleared.Cleared) != 1 || cleared.Cleared[0] != "campaign_cache" {
		t.Fatalf("cleared = %+v", cleared)
	}

	_, stats, err = CacheStatsHandler(f.guard)(ctx, nil, CacheStatsInput{})
	if err != nil {
		t.Fatalf("stats after clear: %v", err)
	}
	if stats.Total != 0 {
		t.Fatalf("total after clear = %d, want 0", stats.Total)
	}
}

func TestClearCacheRejectsUnknownDomain(t *testing.T) {
	f := newFixture(t)
	ctx := WithUser(context.Background(), "operator")
	_, _, err := ClearCacheHandler(f.guard)(ctx, nil, ClearCacheInput{Domain: "bogus_cache"})
	if err == nil {
		t.Fatal("expected error for unknown domain")
	}
}
