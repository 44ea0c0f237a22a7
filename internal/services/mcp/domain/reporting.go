package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/ads/reports"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// defaultRangeDays is the reporting window used when dates are omitted.
const defaultRangeDays = 30

// DateRangeInput carries the shared reporting query fields.
type DateRangeInput struct {
	CustomerID string `json:"customer_id" jsonschema:"ads account id, 10 digits with optional dashes"`
	StartDate  string `json:"start_date,omitempty" jsonschema:"range start in YYYY-MM-DD, defaults to 30 days ago"`
	EndDate    string `json:"end_date,omitempty" jsonschema:"range end in YYYY-MM-DD, defaults to today"`
}

// resolveDates fills the default trailing window when dates are omitted.
func (in DateRangeInput) resolveDates() (string, string) {
	if in.StartDate == "" && in.EndDate == "" {
		return ads.DefaultDateRange(time.Now(), defaultRangeDays)
	}
	return in.StartDate, in.EndDate
}

// CampaignsResult is the get_campaigns tool output.
type CampaignsResult struct {
	Campaigns []ads.Campaign `json:"campaigns"`
	Table     reports.Table  `json:"table"`
}

// CampaignsTool defines the MCP tool schema for campaign reporting.
func CampaignsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_campaigns",
		Description: "Lists campaigns with performance metrics for a date range",
	}
}

// CampaignsHandler serves campaign rows for callers with read access.
func CampaignsHandler(svc *ads.Service, guard *Guard) mcp.ToolHandlerFor[DateRangeInput, CampaignsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DateRangeInput) (*mcp.CallToolResult, CampaignsResult, error) {
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessRead)
		if err != nil {
			return nil, CampaignsResult{}, err
		}
		startDate, endDate := input.resolveDates()
		campaigns, err := svc.Campaigns(ctx, customerID, startDate, endDate)
		if err != nil {
			return nil, CampaignsResult{}, fmt.Errorf("get campaigns: %w", err)
		}
		return nil, CampaignsResult{Campaigns: campaigns, Table: reports.CampaignTable(campaigns)}, nil
	}
}

// KeywordsResult is the get_keywords tool output.
type KeywordsResult struct {
	Keywords []ads.Keyword `json:"keywords"`
	Table    reports.Table `json:"table"`
}

// KeywordsTool defines the MCP tool schema for keyword reporting.
func KeywordsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_keywords",
		Description: "Lists keywords with performance metrics for a date range",
	}
}

// KeywordsHandler serves keyword rows for callers with read access.
func KeywordsHandler(svc *ads.Service, guard *Guard) mcp.ToolHandlerFor[DateRangeInput, KeywordsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DateRangeInput) (*mcp.CallToolResult, KeywordsResult, error) {
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessRead)
		if err != nil {
			return nil, KeywordsResult{}, err
		}
		startDate, endDate := input.resolveDates()
		keywords, err := svc.Keywords(ctx, customerID, startDate, endDate)
		if err != nil {
			return nil, KeywordsResult{}, fmt.Errorf("get keywords: %w", err)
		}
		return nil, KeywordsResult{Keywords: keywords, Table: reports.KeywordTable(keywords)}, nil
	}
}

// SearchTermsResult is the get_search_terms tool output.
type SearchTermsResult struct {
	SearchTerms []ads.SearchTerm `json:"search_terms"`
	Table       reports.Table    `json:"table"`
}

// SearchTermsTool defines the MCP tool schema for search term reporting.
func SearchTermsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_search_terms",
		Description: "Lists search terms that triggered ads for a date range",
	}
}

// SearchTermsHandler serves search term rows for callers with read access.
func SearchTermsHandler(svc *ads.Service, guard *Guard) mcp.ToolHandlerFor[DateRangeInput, SearchTermsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DateRangeInput) (*mcp.CallToolResult, SearchTermsResult, error) {
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessRead)
		if err != nil {
			return nil, SearchTermsResult{}, err
		}
		startDate, endDate := input.resolveDates()
		terms, err := svc.SearchTerms(ctx, customerID, startDate, endDate)
		if err != nil {
			return nil, SearchTermsResult{}, fmt.Errorf("get search terms: %w", err)
		}
		return nil, SearchTermsResult{SearchTerms: terms, Table: reports.SearchTermTable(terms)}, nil
	}
}

// AccountKPIsResult is the get_account_kpis tool output.
type AccountKPIsResult struct {
	KPIs    ads.AccountKPI     `json:"kpis"`
	Summary reports.KPISummary `json:"summary"`
}

// AccountKPIsTool defines the MCP tool schema for account KPIs.
func AccountKPIsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_account_kpis",
		Description: "Aggregates account-level metrics for a date range",
	}
}

// AccountKPIsHandler serves aggregated metrics for callers with read access.
func AccountKPIsHandler(svc *ads.Service, guard *Guard) mcp.ToolHandlerFor[DateRangeInput, AccountKPIsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DateRangeInput) (*mcp.CallToolResult, AccountKPIsResult, error) {
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessRead)
		if err != nil {
			return nil, AccountKPIsResult{}, err
		}
		startDate, endDate := input.resolveDates()
		kpis, err := svc.AccountKPIs(ctx, customerID, startDate, endDate)
		if err != nil {
			return nil, AccountKPIsResult{}, fmt.Errorf("get account kpis: %w", err)
		}
		return nil, AccountKPIsResult{KPIs: kpis, Summary: reports.Summarize(kpis)}, nil
	}
}
