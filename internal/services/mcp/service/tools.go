package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/adbridge-io/adbridge/internal/services/ads"
	mcpdomain "github.com/adbridge-io/adbridge/internal/services/mcp/domain"
)

func registerReportingTools(mcpServer *mcp.Server, svc *ads.Service, guard *mcpdomain.Guard) {
	mcp.AddTool(mcpServer, mcpdomain.CampaignsTool(), mcpdomain.CampaignsHandler(svc, guard))
	mcp.AddTool(mcpServer, mcpdomain.KeywordsTool(), mcpdomain.KeywordsHandler(svc, guard))
	mcp.AddTool(mcpServer, mcpdomain.SearchTermsTool(), mcpdomain.SearchTermsHandler(svc, guard))
	mcp.AddTool(mcpServer, mcpdomain.AccountKPIsTool(), mcpdomain.AccountKPIsHandler(svc, guard))
}

func registerBudgetTools(mcpServer *mcp.Server, svc *ads.Service, guard *mcpdomain.Guard) {
	mcp.AddTool(mcpServer, mcpdomain.BudgetsTool(), mcpdomain.BudgetsHandler(svc, guard))
	mcp.AddTool(mcpServer, mcpdomain.UpdateBudgetTool(), mcpdomain.UpdateBudgetHandler(svc, guard))
}

func registerAdminTools(mcpServer *mcp.Server, guard *mcpdomain.Guard) {
	mcp.AddTool(mcpServer, mcpdomain.GrantAccessTool(), mcpdomain.GrantAccessHandler(guard))
	mcp.AddTool(mcpServer, mcpdomain.ListAccountsTool(), mcpdomain.ListAccountsHandler(guard))
	mcp.AddTool(mcpServer, mcpdomain.CheckAccessTool(), mcpdomain.CheckAccessHandler(guard))
	mcp.AddTool(mcpServer, mcpdomain.SetConfigTool(), mcpdomain.SetConfigHandler(guard))
	mcp.AddTool(mcpServer, mcpdomain.GetConfigTool(), mcpdomain.GetConfigHandler(guard))
	mcp.AddTool(mcpServer, mcpdomain.CacheStatsTool(), mcpdomain.CacheStatsHandler(guard))
	mcp.AddTool(mcpServer, mcpdomain.ClearCacheTool(), mcpdomain.ClearCacheHandler(guard))
}

// registerResources registers readable MCP resources.
func registerResources(mcpServer *mcp.Server, svc *ads.Service, guard *mcpdomain.Guard) {
	mcpServer.AddResource(mcpdomain.CampaignReportResource(), mcpdomain.CampaignReportResourceHandler(svc, guard))
}
