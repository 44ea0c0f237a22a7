// Package service hosts the MCP server over stdio or HTTP transports.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"

	"github.com/adbridge-io/adbridge/internal/auth"
	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/cache/storage"
	mcpdomain "github.com/adbridge-io/adbridge/internal/services/mcp/domain"
)

const (
	// serverName identifies this MCP server to clients.
	serverName = "AdBridge MCP"
	// serverVersion identifies the MCP server version.
	serverVersion = "0.1.0"
)

// TransportKind identifies the MCP transport implementation.
type TransportKind string

const (
	// TransportStdio uses standard input/output for MCP.
	TransportStdio TransportKind = "stdio"
	// TransportHTTP serves MCP over streamable HTTP with bearer auth.
	TransportHTTP TransportKind = "http"
)

// Config configures how the MCP server is exposed.
type Config struct {
	Transport TransportKind
	HTTPAddr  string
}

// Deps carries the collaborators the server needs.
type Deps struct {
	Ads   *ads.Service
	Store storage.Store
	// Verifier authenticates bearer tokens on the HTTP transport.
	Verifier *auth.Verifier
	// StaticUser identifies the caller on stdio sessions.
	StaticUser string
	// Operator is the bootstrap identity for grants and cache admin.
	Operator string
	Log      zerolog.Logger
}

// Server hosts the MCP server.
type Server struct {
	mcpServer *mcp.Server
	deps      Deps
	guard     *mcpdomain.Guard
}

// New creates a configured MCP server with every tool registered.
func New(deps Deps) (*Server, error) {
	if deps.Ads == nil {
		return nil, fmt.Errorf("ads service is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, nil)
	guard := &mcpdomain.Guard{
		Store:      deps.Store,
		StaticUser: deps.StaticUser,
		Operator:   deps.Operator,
	}

	server := &Server{mcpServer: mcpServer, deps: deps, guard: guard}
	registerReportingTools(mcpServer, deps.Ads, guard)
	registerBudgetTools(mcpServer, deps.Ads, guard)
	registerAdminTools(mcpServer, guard)
	registerResources(mcpServer, deps.Ads, guard)
	return server, nil
}

// Run serves MCP until the context ends.
func Run(ctx context.Context, deps Deps, cfg Config) error {
	server, err := New(deps)
	if err != nil {
		return err
	}
	if cfg.Transport == "" {
		cfg.Transport = TransportStdio
	}

	switch cfg.Transport {
	case TransportStdio:
		return server.Serve(ctx)
	case TransportHTTP:
		return server.ServeHTTP(ctx, cfg.HTTPAddr)
	default:
		return fmt.Errorf("transport %q is not supported", cfg.Transport)
	}
}

// Serve starts the MCP server on stdio and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	return s.serveWithTransport(ctx, &mcp.StdioTransport{})
}

// serveWithTransport starts the MCP server using the provided transport.
func (s *Server) serveWithTransport(ctx context.Context, transport mcp.Transport) error {
	if s == nil || s.mcpServer == nil {
		return fmt.Errorf("MCP server is not configured")
	}
	err := s.mcpServer.Run(ctx, transport)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	if err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}
