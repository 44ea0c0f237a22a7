package domain

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/ads/reports"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
)

// BudgetsInput identifies the account whose budgets to list.
type BudgetsInput struct {
	CustomerID string `json:"customer_id" jsonschema:"ads account id, 10 digits with optional dashes"`
}

// BudgetsResult is the get_budgets tool output.
type BudgetsResult struct {
	Budgets []ads.Budget  `json:"budgets"`
	Table   reports.Table `json:"table"`
}

// BudgetsTool defines the MCP tool schema for listing budgets.
func BudgetsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_budgets",
		Description: "Lists campaign budgets with current spend and utilization",
	}
}

// BudgetsHandler serves budget rows for callers with read access.
func BudgetsHandler(svc *ads.Service, guard *Guard) mcp.ToolHandlerFor[BudgetsInput, BudgetsResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input BudgetsInput) (*mcp.CallToolResult, BudgetsResult, error) {
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessRead)
		if err != nil {
			return nil, BudgetsResult{}, err
		}
		budgets, err := svc.Budgets(ctx, customerID)
		if err != nil {
			return nil, BudgetsResult{}, fmt.Errorf("get budgets: %w", err)
		}
		return nil, BudgetsResult{Budgets: budgets, Table: reports.BudgetTable(budgets)}, nil
	}
}

// UpdateBudgetInput carries a budget amount change.
type UpdateBudgetInput struct {
	CustomerID   string `json:"customer_id" jsonschema:"ads account id, 10 digits with optional dashes"`
	BudgetID     string `json:"budget_id" jsonschema:"numeric campaign budget id"`
	AmountMicros int64  `json:"amount_micros" jsonschema:"new daily amount in micros, must be positive"`
}

// UpdateBudgetResult is the update_budget tool output.
type UpdateBudgetResult struct {
	BudgetID        string `json:"budget_id"`
	ResourceName    string `json:"resource_name"`
	AmountMicros    int64  `json:"amount_micros"`
	AmountFormatted string `json:"amount_formatted"`
}

// UpdateBudgetTool defines the MCP tool schema for budget mutation.
func UpdateBudgetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_budget",
		Description: "Sets a campaign budget's daily amount",
	}
}

// UpdateBudgetHandler mutates a budget for callers with write access.
func UpdateBudgetHandler(svc *ads.Service, guard *Guard) mcp.ToolHandlerFor[UpdateBudgetInput, UpdateBudgetResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input UpdateBudgetInput) (*mcp.CallToolResult, UpdateBudgetResult, error) {
		_, customerID, err := guard.RequireOnRaw(ctx, input.CustomerID, storage.AccessWrite)
		if err != nil {
			return nil, UpdateBudgetResult{}, err
		}
		update, err := svc.UpdateBudget(ctx, customerID, input.BudgetID, input.AmountMicros)
		if err != nil {
			return nil, UpdateBudgetResult{}, fmt.Errorf("update budget: %w", err)
		}
		return nil, UpdateBudgetResult{
			BudgetID:        update.BudgetID,
			ResourceName:    update.ResourceName,
			AmountMicros:    update.AmountMicros,
			AmountFormatted: reports.FormatMicros(update.AmountMicros),
		}, nil
	}
}
