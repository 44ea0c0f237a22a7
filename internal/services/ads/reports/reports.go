// Package reports shapes ads rows into table and chart payloads for
// presentation layers.
package reports

import (
	"fmt"

	"github.com/adbridge-io/adbridge/internal/services/ads"
)

// Table is a column-ordered view of rows.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// BarChart pairs labels with a single numeric series.
type BarChart struct {
	Title  string    `json:"title"`
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// KPISummary is a flat card of headline account metrics.
type KPISummary struct {
	Impressions string `json:"impressions"`
	Clicks      string `json:"clicks"`
	Cost        string `json:"cost"`
	Conversions string `json:"conversions"`
	CTR         string `json:"ctr"`
	AverageCPC  string `json:"average_cpc"`
}

// FormatMicros renders a micros amount as a currency string, e.g.
// 1500000 becomes "$1.50".
func FormatMicros(micros int64) string {
	sign := ""
	if micros < 0 {
		sign = "-"
		micros = -micros
	}
	return fmt.Sprintf("%s$%d.%02d", sign, micros/1_000_000, (micros%1_000_000)/10_000)
}

// FormatPercent renders a ratio as a percentage with two decimals.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// CampaignTable renders campaign rows.
func CampaignTable(campaigns []ads.Campaign) Table {
	table := Table{
		Title:   "Campaign Performance",
		Columns: []string{"ID", "Name", "Status", "Channel", "Impressions", "Clicks", "Cost", "Conversions"},
	}
	for _, c := range campaigns {
		table.Rows = append(table.Rows, []string{
			c.ID,
			c.Name,
			c.Status,
			c.ChannelType,
			fmt.Sprintf("%d", c.Impressions),
			fmt.Sprintf("%d", c.Clicks),
			FormatMicros(c.CostMicros),
			fmt.Sprintf("%.1f", c.Conversions),
		})
	}
	return table
}

// KeywordTable renders keyword rows.
func KeywordTable(keywords []ads.Keyword) Table {
	table := Table{
		Title:   "Keyword Performance",
		Columns: []string{"ID", "Keyword", "Match Type", "Status", "Impressions", "Clicks", "Cost"},
	}
	for _, k := range keywords {
		table.Rows = append(table.Rows, []string{
			k.ID,
			k.Text,
			k.MatchType,
			k.Status,
			fmt.Sprintf("%d", k.Impressions),
			fmt.Sprintf("%d", k.Clicks),
			FormatMicros(k.CostMicros),
		})
	}
	return table
}

// SearchTermTable renders search term rows.
func SearchTermTable(terms []ads.SearchTerm) Table {
	table := Table{
		Title:   "Search Terms",
		Columns: []string{"Term", "Campaign", "Ad Group", "Impressions", "Clicks", "Cost"},
	}
	for _, st := range terms {
		table.Rows = append(table.Rows, []string{
			st.Term,
			st.CampaignID,
			st.AdGroupID,
			fmt.Sprintf("%d", st.Impressions),
			fmt.Sprintf("%d", st.Clicks),
			FormatMicros(st.CostMicros),
		})
	}
	return table
}

// BudgetTable renders budget rows with utilization.
func BudgetTable(budgets []ads.Budget) Table {
	table := Table{
		Title:   "Campaign Budgets",
		Columns: []string{"ID", "Name", "Status", "Amount", "Spend", "Utilization"},
	}
	for _, b := range budgets {
		utilization := "n/a"
		if b.AmountMicros > 0 {
			utilization = FormatPercent(float64(b.SpendMicros) / float64(b.AmountMicros))
		}
		table.Rows = append(table.Rows, []string{
			b.ID,
			b.Name,
			b.Status,
			FormatMicros(b.AmountMicros),
			FormatMicros(b.SpendMicros),
			utilization,
		})
	}
	return table
}

// CampaignCostChart charts spend per campaign in whole currency units.
func CampaignCostChart(campaigns []ads.Campaign) BarChart {
	chart := BarChart{Title: "Cost by Campaign"}
	for _, c := range campaigns {
		chart.Labels = append(chart.Labels, c.Name)
		chart.Values = append(chart.Values, float64(c.CostMicros)/1_000_000)
	}
	return chart
}

// Summarize renders headline account metrics.
func Summarize(kpi ads.AccountKPI) KPISummary {
	return KPISummary{
		Impressions: fmt.Sprintf("%d", kpi.Impressions),
		Clicks:      fmt.Sprintf("%d", kpi.Clicks),
		Cost:        FormatMicros(kpi.CostMicros),
		Conversions: fmt.Sprintf("%.1f", kpi.Conversions),
		CTR:         FormatPercent(kpi.CTR),
		AverageCPC:  FormatMicros(kpi.AverageCPCMicros),
	}
}
