package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/ads/reports"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// defaultAccountConfigKey names the config entry that selects the
// account the campaign report resource covers.
const defaultAccountConfigKey = "default_customer_id"

// CampaignReportPayload is the campaign report resource body.
type CampaignReportPayload struct {
	CustomerID string           `json:"customer_id"`
	StartDate  string           `json:"start_date"`
	EndDate    string           `json:"end_date"`
	Table      reports.Table    `json:"table"`
	Chart      reports.BarChart `json:"chart"`
}

// CampaignReportResource defines the readable campaign report.
func CampaignReportResource() *mcp.Resource {
	return &mcp.Resource{
		Name:        "campaign_report",
		Title:       "Campaign Report",
		Description: "Campaign performance for the configured default account over the last 30 days",
		MIMEType:    "application/json",
		URI:         "adbridge://reports/campaigns",
	}
}

// CampaignReportResourceHandler renders the report for the account named
// by the default_customer_id config entry.
func CampaignReportResourceHandler(svc *ads.Service, guard *Guard) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		caller, err := guard.User(ctx)
		if err != nil {
			return nil, err
		}
		raw, found, err := guard.Store.GetConfig(ctx, defaultAccountConfigKey, caller)
		if err != nil {
			return nil, fmt.Errorf("read default account config: %w", err)
		}
		if !found {
			return nil, fmt.Errorf("config key %q is not set", defaultAccountConfigKey)
		}

		customerID, err := ads.CleanCustomerID(string(raw))
		if err != nil {
			return nil, err
		}
		if _, err := guard.Require(ctx, customerID, storage.AccessRead); err != nil {
			return nil, err
		}

		startDate, endDate := ads.DefaultDateRange(time.Now(), defaultRangeDays)
		campaigns, err := svc.Campaigns(ctx, customerID, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("campaign report: %w", err)
		}

		payload := CampaignReportPayload{
			CustomerID: customerID,
			StartDate:  startDate,
			EndDate:    endDate,
			Table:      reports.CampaignTable(campaigns),
			Chart:      reports.CampaignCostChart(campaigns),
		}
		data, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal campaign report: %w", err)
		}

		uri := CampaignReportResource().URI
		if req != nil && req.Params != nil && req.Params.URI != "" {
			uri = req.Params.URI
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{URI: uri, MIMEType: "application/json", Text: string(data)},
			},
		}, nil
	}
}
