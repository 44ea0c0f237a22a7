// Package ads talks to the Google Ads reporting API and layers explicit
// response caching over it.
package ads

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultEndpoint is the REST surface for GAQL search and mutate calls.
const defaultEndpoint = "https://googleads.googleapis.com/v21"

// Campaign is one campaign row with metrics for the requested date range.
type Campaign struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	Status           string  `json:"status"`
	ChannelType      string  `json:"channel_type"`
	Impressions      int64   `json:"impressions"`
	Clicks           int64   `json:"clicks"`
	CostMicros       int64   `json:"cost_micros"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversions_value"`
}

// Keyword is one keyword row with metrics.
type Keyword struct {
	ID          string `json:"id"`
	AdGroupID   string `json:"ad_group_id"`
	Text        string `json:"text"`
	MatchType   string `json:"match_type"`
	Status      string `json:"status"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
	CostMicros  int64  `json:"cost_micros"`
}

// SearchTerm is one search term row with metrics.
type SearchTerm struct {
	Term        string `json:"term"`
	CampaignID  string `json:"campaign_id"`
	AdGroupID   string `json:"ad_group_id"`
	Impressions int64  `json:"impressions"`
	Clicks      int64  `json:"clicks"`
	CostMicros  int64  `json:"cost_micros"`
}

// Budget is one campaign budget with current spend.
type Budget struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	AmountMicros   int64  `json:"amount_micros"`
	DeliveryMethod string `json:"delivery_method"`
	SpendMicros    int64  `json:"spend_micros"`
}

// AccountKPI aggregates account-level metrics for a date range.
type AccountKPI struct {
	Impressions      int64   `json:"impressions"`
	Clicks           int64   `json:"clicks"`
	CostMicros       int64   `json:"cost_micros"`
	Conversions      float64 `json:"conversions"`
	ConversionsValue float64 `json:"conversions_value"`
	CTR              float64 `json:"ctr"`
	AverageCPCMicros int64   `json:"average_cpc_micros"`
}

// BudgetUpdate is the acknowledged result of a budget mutation.
type BudgetUpdate struct {
	BudgetID     string `json:"budget_id"`
	ResourceName string `json:"resource_name"`
	AmountMicros int64  `json:"amount_micros"`
}

// Client is the upstream boundary. Implementations return rows for a
// validated customer id; callers own caching and access control.
type Client interface {
	SearchCampaigns(ctx context.Context, customerID, startDate, endDate string) ([]Campaign, error)
	SearchKeywords(ctx context.Context, customerID, startDate, endDate string) ([]Keyword, error)
	SearchTerms(ctx context.Context, customerID, startDate, endDate string) ([]SearchTerm, error)
	SearchBudgets(ctx context.Context, customerID string) ([]Budget, error)
	SearchAccountKPIs(ctx context.Context, customerID, startDate, endDate string) (AccountKPI, error)
	MutateBudget(ctx context.Context, customerID, budgetID string, amountMicros int64) (BudgetUpdate, error)
}

// ClientConfig configures the HTTP API client.
type ClientConfig struct {
	Endpoint        string
	DeveloperToken  string
	AccessToken     string
	LoginCustomerID string
	HTTPClient      *http.Client
}

// apiClient implements Client over the JSON REST surface.
type apiClient struct {
	cfg  ClientConfig
	http *http.Client
}

// NewClient builds an HTTP-backed Client.
func NewClient(cfg ClientConfig) (Client, error) {
	if strings.TrimSpace(cfg.DeveloperToken) == "" {
		return nil, fmt.Errorf("developer token is required")
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("access token is required")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &apiClient{cfg: cfg, http: httpClient}, nil
}

// searchRow mirrors the JSON shape of one GoogleAdsRow.
type searchRow struct {
	Campaign struct {
		ID                     string `json:"id"`
		Name                   string `json:"name"`
		Status                 string `json:"status"`
		AdvertisingChannelType string `json:"advertisingChannelType"`
	} `json:"campaign"`
	AdGroup struct {
		ID string `json:"id"`
	} `json:"adGroup"`
	AdGroupCriterion struct {
		CriterionID string `json:"criterionId"`
		Status      string `json:"status"`
		Keyword     struct {
			Text      string `json:"text"`
			MatchType string `json:"matchType"`
		} `json:"keyword"`
	} `json:"adGroupCriterion"`
	SearchTermView struct {
		SearchTerm string `json:"searchTerm"`
	} `json:"searchTermView"`
	CampaignBudget struct {
		ID             string `json:"id"`
		Name           string `json:"name"`
		Status         string `json:"status"`
		AmountMicros   int64  `json:"amountMicros,string"`
		DeliveryMethod string `json:"deliveryMethod"`
	} `json:"campaignBudget"`
	Metrics struct {
		Impressions      int64   `json:"impressions,string"`
		Clicks           int64   `json:"clicks,string"`
		CostMicros       int64   `json:"costMicros,string"`
		Conversions      float64 `json:"conversions"`
		ConversionsValue float64 `json:"conversionsValue"`
	} `json:"metrics"`
}

type searchResponse struct {
	Results []searchRow `json:"results"`
}

// search executes one GAQL query and returns the decoded rows.
func (c *apiClient) search(ctx context.Context, customerID, query string) ([]searchRow, error) {
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	url := fmt.Sprintf("%s/customers/%s/googleAds:search", strings.TrimSuffix(c.cfg.Endpoint, "/"), customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("search returned %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var decoded searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return decoded.Results, nil
}

func (c *apiClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	req.Header.Set("developer-token", c.cfg.DeveloperToken)
	if c.cfg.LoginCustomerID != "" {
		req.Header.Set("login-customer-id", c.cfg.LoginCustomerID)
	}
}

func (c *apiClient) SearchCampaigns(ctx context.Context, customerID, startDate, endDate string) ([]Campaign, error) {
	query := fmt.Sprintf(`
		SELECT
			campaign.id,
			campaign.name,
			campaign.status,
			campaign.advertising_channel_type,
			metrics.impressions,
			metrics.clicks,
			metrics.cost_micros,
			metrics.conversions,
			metrics.conversions_value
		FROM campaign
		WHERE segments.date BETWEEN '%s' AND '%s'
		ORDER BY campaign.id`, startDate, endDate)

	rows, err := c.search(ctx, customerID, query)
	if err != nil {
		return nil, err
	}
	campaigns := make([]Campaign, 0, len(rows))
	for _, row := range rows {
		campaigns = append(campaigns, Campaign{
			ID:               row.Campaign.ID,
			Name:             row.Campaign.Name,
			Status:           row.Campaign.Status,
			ChannelType:      row.Campaign.AdvertisingChannelType,
			Impressions:      row.Metrics.Impressions,
			Clicks:           row.Metrics.Clicks,
			CostMicros:       row.Metrics.CostMicros,
			Conversions:      row.Metrics.Conversions,
			ConversionsValue: row.Metrics.ConversionsValue,
		})
	}
	return campaigns, nil
}

func (c *apiClient) SearchKeywords(ctx context.Context, customerID, startDate, endDate string) ([]Keyword, error) {
	query := fmt.Sprintf(`
		SELECT
			ad_group_criterion.criterion_id,
			ad_group_criterion.keyword.text,
			ad_group_criterion.keyword.match_type,
			ad_group_criterion.status,
			ad_group.id,
			metrics.impressions,
			metrics.clicks,
			metrics.cost_micros
		FROM keyword_view
		WHERE segments.date BETWEEN '%s' AND '%s'
		ORDER BY metrics.impressions DESC`, startDate, endDate)

	rows, err := c.search(ctx, customerID, query)
	if err != nil {
		return nil, err
	}
	keywords := make([]Keyword, 0, len(rows))
	for _, row := range rows {
		keywords = append(keywords, Keyword{
			ID:          row.AdGroupCriterion.CriterionID,
			AdGroupID:   row.AdGroup.ID,
			Text:        row.AdGroupCriterion.Keyword.Text,
			MatchType:   row.AdGroupCriterion.Keyword.MatchType,
			Status:      row.AdGroupCriterion.Status,
			Impressions: row.Metrics.Impressions,
			Clicks:      row.Metrics.Clicks,
			CostMicros:  row.Metrics.CostMicros,
		})
	}
	return keywords, nil
}

func (c *apiClient) SearchTerms(ctx context.Context, customerID, startDate, endDate string) ([]SearchTerm, error) {
	query := fmt.Sprintf(`
		SELECT
			search_term_view.search_term,
			campaign.id,
			ad_group.id,
			metrics.impressions,
			metrics.clicks,
			metrics.cost_micros
		FROM search_term_view
		WHERE segments.date BETWEEN '%s' AND '%s'
		ORDER BY metrics.impressions DESC`, startDate, endDate)

	rows, err := c.search(ctx, customerID, query)
	if err != nil {
		return nil, err
	}
	terms := make([]SearchTerm, 0, len(rows))
	for _, row := range rows {
		terms = append(terms, SearchTerm{
			Term:        row.SearchTermView.SearchTerm,
			CampaignID:  row.Campaign.ID,
			AdGroupID:   row.AdGroup.ID,
			Impressions: row.Metrics.Impressions,
			Clicks:      row.Metrics.Clicks,
			CostMicros:  row.Metrics.CostMicros,
		})
	}
	return terms, nil
}

func (c *apiClient) SearchBudgets(ctx context.Context, customerID string) ([]Budget, error) {
	query := `
		SELECT
			campaign_budget.id,
			campaign_budget.name,
			campaign_budget.status,
			campaign_budget.amount_micros,
			campaign_budget.delivery_method,
			metrics.cost_micros
		FROM campaign_budget
		ORDER BY campaign_budget.id`

	rows, err := c.search(ctx, customerID, query)
	if err != nil {
		return nil, err
	}
	budgets := make([]Budget, 0, len(rows))
	for _, row := range rows {
		budgets = append(budgets, Budget{
			ID:             row.CampaignBudget.ID,
			Name:           row.CampaignBudget.Name,
			Status:         row.CampaignBudget.Status,
			AmountMicros:   row.CampaignBudget.AmountMicros,
			DeliveryMethod: row.CampaignBudget.DeliveryMethod,
			SpendMicros:    row.Metrics.CostMicros,
		})
	}
	return budgets, nil
}

func (c *apiClient) SearchAccountKPIs(ctx context.Context, customerID, startDate, endDate string) (AccountKPI, error) {
	query := fmt.Sprintf(`
		SELECT
			metrics.impressions,
			metrics.clicks,
			metrics.cost_micros,
			metrics.conversions,
			metrics.conversions_value
		FROM customer
		WHERE segments.date BETWEEN '%s' AND '%s'`, startDate, endDate)

	rows, err := c.search(ctx, customerID, query)
	if err != nil {
		return AccountKPI{}, err
	}

	var kpi AccountKPI
	for _, row := range rows {
		kpi.Impressions += row.Metrics.Impressions
		kpi.Clicks += row.Metrics.Clicks
		kpi.CostMicros += row.Metrics.CostMicros
		kpi.Conversions += row.Metrics.Conversions
		kpi.ConversionsValue += row.Metrics.ConversionsValue
	}
	if kpi.Impressions > 0 {
		kpi.CTR = float64(kpi.Clicks) / float64(kpi.Impressions)
	}
	if kpi.Clicks > 0 {
		kpi.AverageCPCMicros = kpi.CostMicros / kpi.Clicks
	}
	return kpi, nil
}

// mutateResponse mirrors the JSON shape of a campaignBudgets:mutate reply.
type mutateResponse struct {
	Results []struct {
		ResourceName string `json:"resourceName"`
	} `json:"results"`
}

func (c *apiClient) MutateBudget(ctx context.Context, customerID, budgetID string, amountMicros int64) (BudgetUpdate, error) {
	resourceName := fmt.Sprintf("customers/%s/campaignBudgets/%s", customerID, budgetID)
	payload := map[string]any{
		"operations": []map[string]any{
			{
				"updateMask": "amount_micros",
				"update": map[string]any{
					"resourceName": resourceName,
					"amountMicros": fmt.Sprintf("%d", amountMicros),
				},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return BudgetUpdate{}, fmt.Errorf("encode mutate request: %w", err)
	}

	url := fmt.Sprintf("%s/customers/%s/campaignBudgets:mutate", strings.TrimSuffix(c.cfg.Endpoint, "/"), customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return BudgetUpdate{}, fmt.Errorf("build mutate request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return BudgetUpdate{}, fmt.Errorf("execute mutate: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		errPayload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return BudgetUpdate{}, fmt.Errorf("mutate returned %s: %s", resp.Status, strings.TrimSpace(string(errPayload)))
	}

	var decoded mutateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return BudgetUpdate{}, fmt.Errorf("decode mutate response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return BudgetUpdate{}, fmt.Errorf("mutate response is missing results")
	}

	return BudgetUpdate{
		BudgetID:     budgetID,
		ResourceName: decoded.Results[0].ResourceName,
		AmountMicros: amountMicros,
	}, nil
}

var _ Client = (*apiClient)(nil)
