package domain

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// GrantAccessInput assigns an access level on an account.
type GrantAccessInput struct {
	UserID     string `json:"user_id" jsonschema:"user receiving the grant"`
	CustomerID string `json:"customer_id" jsonschema:"ads account id, 10 digits with optional dashes"`
	Level      string `json:"level" jsonschema:"access level: read, write, or admin"`
}

// GrantAccessResult is the grant_account_access tool output.
type GrantAccessResult struct {
	UserID     string `json:"user_id"`
	CustomerID string `json:"customer_id"`
	Level      string `json:"level"`
}

// GrantAccessTool defines the MCP tool schema for granting account access.
func GrantAccessTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "grant_account_access",
		Description: "Grants a user read, write, or admin access to an ads account",
	}
}

// GrantAccessHandler stores a grant. The caller must hold admin on the
// account or be the configured operator.
func GrantAccessHandler(guard *Guard) mcp.ToolHandlerFor[GrantAccessInput, GrantAccessResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GrantAccessInput) (*mcp.CallToolResult, GrantAccessResult, error) {
		level, err := storage.ParseAccessLevel(input.Level)
		if err != nil {
			return nil, GrantAccessResult{}, err
		}
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessAdmin)
		if err != nil {
			return nil, GrantAccessResult{}, err
		}
		if input.UserID == "" {
			return nil, GrantAccessResult{}, fmt.Errorf("user id is required")
		}

		// A grant implies the user exists; seed a profile on first sight.
		if _, found, err := guard.Store.GetUserProfile(ctx, input.UserID); err != nil {
			return nil, GrantAccessResult{}, fmt.Errorf("get user profile: %w", err)
		} else if !found {
			profile, err := json.Marshal(map[string]string{"user_id": input.UserID})
			if err != nil {
				return nil, GrantAccessResult{}, fmt.Errorf("encode user profile: %w", err)
			}
			if err := guard.Store.PutUserProfile(ctx, input.UserID, profile); err != nil {
				return nil, GrantAccessResult{}, fmt.Errorf("put user profile: %w", err)
			}
		}

		if err := guard.Store.GrantAccountAccess(ctx, input.UserID, customerID, level); err != nil {
			return nil, GrantAccessResult{}, fmt.Errorf("grant account access: %w", err)
		}
		return nil, GrantAccessResult{UserID: input.UserID, CustomerID: customerID, Level: string(level)}, nil
	}
}

// ListAccountsInput has no fields; the listing always covers the caller.
type ListAccountsInput struct{}

// AccountEntry is one grant in the list_accounts output.
type AccountEntry struct {
	CustomerID string `json:"customer_id"`
	Level      string `json:"level"`
}

// ListAccountsResult is the list_accounts tool output.
type ListAccountsResult struct {
	Accounts []AccountEntry `json:"accounts"`
}

// ListAccountsTool defines the MCP tool schema for listing the caller's
// accounts.
func ListAccountsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "list_accounts",
		Description: "Lists the ads accounts the caller can access and at what level",
	}
}

// ListAccountsHandler returns the caller's grants.
func ListAccountsHandler(guard *Guard) mcp.ToolHandlerFor[ListAccountsInput, ListAccountsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ ListAccountsInput) (*mcp.CallToolResult, ListAccountsResult, error) {
		caller, err := guard.User(ctx)
		if err != nil {
			return nil, ListAccountsResult{}, err
		}
		grants, err := guard.Store.ListUserAccounts(ctx, caller)
		if err != nil {
			return nil, ListAccountsResult{}, fmt.Errorf("list user accounts: %w", err)
		}
		result := ListAccountsResult{}
		for _, grant := range grants {
			result.Accounts = append(result.Accounts, AccountEntry{
				CustomerID: grant.CustomerID,
				Level:      string(grant.Level),
			})
		}
		return nil, result, nil
	}
}

// CheckAccessInput asks whether a user holds a level on an account.
type CheckAccessInput struct {
	UserID     string `json:"user_id,omitempty" jsonschema:"user to check, defaults to the caller"`
	CustomerID string `json:"customer_id" jsonschema:"ads account id, 10 digits with optional dashes"`
	Level      string `json:"level" jsonschema:"access level to test: read, write, or admin"`
}

// CheckAccessResult is the check_account_access tool output.
type CheckAccessResult struct {
	UserID     string `json:"user_id"`
	CustomerID string `json:"customer_id"`
	Level      string `json:"level"`
	Granted    bool   `json:"granted"`
}

// CheckAccessTool defines the MCP tool schema for access checks.
func CheckAccessTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "check_account_access",
		Description: "Reports whether a user holds an access level on an ads account",
	}
}

// CheckAccessHandler answers an access question. Callers may check
// themselves; checking another user requires admin on the account.
func CheckAccessHandler(guard *Guard) mcp.ToolHandlerFor[CheckAccessInput, CheckAccessResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CheckAccessInput) (*mcp.CallToolResult, CheckAccessResult, error) {
		level, err := storage.ParseAccessLevel(input.Level)
		if err != nil {
			return nil, CheckAccessResult{}, err
		}
		customerID, err := ads.CleanCustomerID(input.CustomerID)
		if err != nil {
			return nil, CheckAccessResult{}, err
		}
		caller, err := guard.User(ctx)
		if err != nil {
			return nil, CheckAccessResult{}, err
		}

		subject := input.UserID
		if subject == "" {
			subject = caller
		}
		if subject != caller {
			if _, err := guard.Require(ctx, customerID, storage.AccessAdmin); err != nil {
				return nil, CheckAccessResult{}, err
			}
		}

		granted, err := guard.Store.CheckAccountAccess(ctx, subject, customerID, level)
		if err != nil {
			return nil, CheckAccessResult{}, fmt.Errorf("check account access: %w", err)
		}
		return nil, CheckAccessResult{
			UserID:     subject,
			CustomerID: customerID,
			Level:      string(level),
			Granted:    granted,
		}, nil
	}
}

// SetConfigInput writes a configuration value.
type SetConfigInput struct {
	Key    string `json:"key" jsonschema:"configuration key"`
	Value  string `json:"value" jsonschema:"configuration value"`
	System bool   `json:"system,omitempty" jsonschema:"write to system scope instead of the caller's scope"`
}

// SetConfigResult is the set_config tool output.
type SetConfigResult struct {
	Key   string `json:"key"`
	Scope string `json:"scope"`
}

// SetConfigTool defines the MCP tool schema for writing configuration.
func SetConfigTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_config",
		Description: "Writes a configuration value in the caller's scope or the system scope",
	}
}

// SetConfigHandler writes caller-scoped config. System scope is limited
// to the configured operator.
func SetConfigHandler(guard *Guard) mcp.ToolHandlerFor[SetConfigInput, SetConfigResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SetConfigInput) (*mcp.CallToolResult, SetConfigResult, error) {
		if input.Key == "" {
			return nil, SetConfigResult{}, fmt.Errorf("config key is required")
		}
		caller, err := guard.User(ctx)
		if err != nil {
			return nil, SetConfigResult{}, err
		}

		scope := "user"
		userID := caller
		if input.System {
			if !guard.IsOperator(caller) {
				return nil, SetConfigResult{}, fmt.Errorf("%w: system config requires the operator", ErrAccessDenied)
			}
			scope = "system"
			userID = ""
		}
		if err := guard.Store.PutConfig(ctx, input.Key, []byte(input.Value), userID); err != nil {
			return nil, SetConfigResult{}, fmt.Errorf("put config: %w", err)
		}
		return nil, SetConfigResult{Key: input.Key, Scope: scope}, nil
	}
}

// GetConfigInput reads a configuration value.
type GetConfigInput struct {
	Key string `json:"key" jsonschema:"configuration key"`
}

// GetConfigResult is the get_config tool output.
type GetConfigResult struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// GetConfigTool defines the MCP tool schema for reading configuration.
func GetConfigTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_config",
		Description: "Reads a configuration value, preferring the caller's scope over system",
	}
}

// GetConfigHandler reads caller-scoped config with system fallback.
func GetConfigHandler(guard *Guard) mcp.ToolHandlerFor[GetConfigInput, GetConfigResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GetConfigInput) (*mcp.CallToolResult, GetConfigResult, error) {
		if input.Key == "" {
			return nil, GetConfigResult{}, fmt.Errorf("config key is required")
		}
		caller, err := guard.User(ctx)
		if err != nil {
			return nil, GetConfigResult{}, err
		}
		value, found, err := guard.Store.GetConfig(ctx, input.Key, caller)
		if err != nil {
			return nil, GetConfigResult{}, fmt.Errorf("get config: %w", err)
		}
		return nil, GetConfigResult{Key: input.Key, Value: string(value), Found: found}, nil
	}
}

// CacheStatsInput has no fields; stats cover every cache domain.
type CacheStatsInput struct{}

// CacheStatsResult is the cache_stats tool output.
type CacheStatsResult struct {
	Counts map[string]int64 `json:"counts"`
	Total  int64            `json:"total"`
}

// CacheStatsTool defines the MCP tool schema for cache statistics.
func CacheStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "cache_stats",
		Description: "Reports record counts per cache domain",
	}
}

// CacheStatsHandler reports per-domain record counts.
func CacheStatsHandler(guard *Guard) mcp.ToolHandlerFor[CacheStatsInput, CacheStatsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ CacheStatsInput) (*mcp.CallToolResult, CacheStatsResult, error) {
		if _, err := guard.User(ctx); err != nil {
			return nil, CacheStatsResult{}, err
		}
		stats, err := guard.Store.Stats(ctx)
		if err != nil {
			return nil, CacheStatsResult{}, fmt.Errorf("cache stats: %w", err)
		}
		result := CacheStatsResult{Counts: make(map[string]int64, len(stats))}
		for domain, count := range stats {
			result.Counts[string(domain)] = count
			result.Total += count
		}
		return nil, result, nil
	}
}

// ClearCacheInput optionally narrows the clear to one domain.
type ClearCacheInput struct {
	Domain string `json:"domain,omitempty" jsonschema:"cache domain to clear, empty clears all"`
}

// ClearCacheResult is the clear_cache tool output.
type ClearCacheResult struct {
	Cleared []string `json:"cleared"`
}

// ClearCacheTool defines the MCP tool schema for clearing caches.
func ClearCacheTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "clear_cache",
		Description: "Drops cached records from one domain or all domains",
	}
}

// ClearCacheHandler drops cached records. Limited to the operator.
func ClearCacheHandler(guard *Guard) mcp.ToolHandlerFor[ClearCacheInput, ClearCacheResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ClearCacheInput) (*mcp.CallToolResult, ClearCacheResult, error) {
		caller, err := guard.User(ctx)
		if err != nil {
			return nil, ClearCacheResult{}, err
		}
		if !guard.IsOperator(caller) {
			return nil, ClearCacheResult{}, fmt.Errorf("%w: clear_cache requires the operator", ErrAccessDenied)
		}

		var domains []storage.Domain
		if input.Domain != "" {
			domain := storage.Domain(input.Domain)
			if !storage.ValidDomain(domain) {
				return nil, ClearCacheResult{}, fmt.Errorf("unknown cache domain %q", input.Domain)
			}
			domains = append(domains, domain)
		}
		if err := guard.Store.Clear(ctx, domains...); err != nil {
			return nil, ClearCacheResult{}, fmt.Errorf("clear cache: %w", err)
		}

		result := ClearCacheResult{}
		if len(domains) == 0 {
			for _, domain := range storage.CacheDomains() {
				result.Cleared = append(result.Cleared, string(domain))
			}
		} else {
			for _, domain := range domains {
				result.Cleared = append(result.Cleared, string(domain))
			}
		}
		return nil, result, nil
	}
}
