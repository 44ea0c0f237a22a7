package reports

import (
	"testing"

	"github.com/adbridge-io/adbridge/internal/services/ads"
)

func TestFormatMicros(t *testing.T) {
	cases := []struct {
		micros int64
		want   string
	}{
		{0, "$0.00"},
		{1_500_000, "$1.50"},
		{2_000_000, "$2.00"},
		{10_000, "$0.01"},
		{123_456_789, "$123.45"},
		{-1_500_000, "-$1.50"},
	}
	for _, tc := range cases {
		if got := FormatMicros(tc.micros); got != tc.want {
			t.Fatalf("FormatMicros(%d) = %q, want %q", tc.micros, got, tc.want)
		}
	}
}

func TestFormatPercent(t *testing.T) {
	if got := FormatPercent(0.0523); got != "5.23%" {
		t.Fatalf("FormatPercent = %q", got)
	}
}

func TestCampaignTable(t *testing.T) {
	table := CampaignTable([]ads.Campaign{
		{ID: "1", Name: "Brand", Status: "ENABLED", ChannelType: "SEARCH", Impressions: 1000, Clicks: 50, CostMicros: 12_500_000, Conversions: 3.5},
	})
	if table.Title != "Campaign Performance" {
		t.Fatalf("title = %q", table.Title)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(table.Rows))
	}
	row := table.Rows[0]
	if len(row) != len(table.Columns) {
		t.Fatalf("row width = %d, columns = %d", len(row), len(table.Columns))
	}
	if row[6] != "$12.50" {
		t.Fatalf("cost cell = %q, want $12.50", row[6])
	}
}

func TestBudgetTableUtilization(t *testing.T) {
	table := BudgetTable([]ads.Budget{
		{ID: "77", Name: "Main", Status: "ENABLED", AmountMicros: 10_000_000, SpendMicros: 2_500_000},
		{ID: "78", Name: "Empty", Status: "ENABLED", AmountMicros: 0, SpendMicros: 0},
	})
	if table.Rows[0][5] != "25.00%" {
		t.Fatalf("utilization = %q, want 25.00%%", table.Rows[0][5])
	}
	if table.Rows[1][5] != "n/a" {
		t.Fatalf("zero budget utilization = %q, want n/a", table.Rows[1][5])
	}
}

func TestCampaignCostChart(t *testing.T) {
	chart := CampaignCostChart([]ads.Campaign{
		{Name: "A", CostMicros: 1_000_000},
		{Name: "B", CostMicros: 2_500_000},
	})
	if len(chart.Labels) != 2 || chart.Labels[1] != "B" {
		t.Fatalf("labels = %v", chart.Labels)
	}
	if chart.Values[1] != 2.5 {
		t.Fatalf("values = %v", chart.Values)
	}
}

func TestSummarize(t *testing.T) {
	summary := Summarize(ads.AccountKPI{
		Impressions:      10_000,
		Clicks:           500,
		CostMicros:       250_000_000,
		Conversions:      12.5,
		CTR:              0.05,
		AverageCPCMicros: 500_000,
	})
	if summary.Cost != "$250.00" {
		t.Fatalf("cost = %q", summary.Cost)
	}
	if summary.CTR != "5.00%" {
		t.Fatalf("ctr = %q", summary.CTR)
	}
	if summary.AverageCPC != "$0.50" {
		t.Fatalf("avg cpc = %q", summary.AverageCPC)
	}
}
