// Package mcp parses MCP command flags and wires the cache store, ads
// client, and MCP server together.
package mcp

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/adbridge-io/adbridge/internal/auth"
	"github.com/adbridge-io/adbridge/internal/platform/config"
	"github.com/adbridge-io/adbridge/internal/platform/logging"
	"github.com/adbridge-io/adbridge/internal/platform/otel"
	"github.com/adbridge-io/adbridge/internal/services/ads"
	"github.com/adbridge-io/adbridge/internal/services/cache"
	mcpservice "github.com/adbridge-io/adbridge/internal/services/mcp/service"
)

// Config holds MCP command configuration.
type Config struct {
	CacheBackend string `env:"ADBRIDGE_CACHE_BACKEND" envDefault:"sqlite"`
	CachePath    string `env:"ADBRIDGE_CACHE_PATH"    envDefault:"adbridge.db"`

	Transport string `env:"ADBRIDGE_MCP_TRANSPORT" envDefault:"stdio"`
	HTTPAddr  string `env:"ADBRIDGE_MCP_HTTP_ADDR" envDefault:"localhost:8081"`

	AdsEndpoint        string `env:"ADBRIDGE_ADS_ENDPOINT"`
	AdsDeveloperToken  string `env:"ADBRIDGE_ADS_DEVELOPER_TOKEN"`
	AdsAccessToken     string `env:"ADBRIDGE_ADS_ACCESS_TOKEN"`
	AdsLoginCustomerID string `env:"ADBRIDGE_ADS_LOGIN_CUSTOMER_ID"`

	TokenSecret   string `env:"ADBRIDGE_TOKEN_SECRET"`
	TokenIssuer   string `env:"ADBRIDGE_TOKEN_ISSUER"   envDefault:"adbridge"`
	TokenAudience string `env:"ADBRIDGE_TOKEN_AUDIENCE" envDefault:"adbridge-mcp"`

	StaticUser string `env:"ADBRIDGE_USER_ID"`
	Operator   string `env:"ADBRIDGE_OPERATOR_ID"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.CacheBackend, "cache-backend", cfg.CacheBackend, "cache backend: sqlite or memory")
	fs.StringVar(&cfg.CachePath, "cache-path", cfg.CachePath, "sqlite database path")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "transport type: stdio or http")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address (for HTTP transport)")
	fs.StringVar(&cfg.StaticUser, "user", cfg.StaticUser, "caller identity for stdio sessions")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the MCP server and blocks until the context ends.
func Run(ctx context.Context, cfg Config) error {
	shutdown, err := otel.Setup(ctx, "mcp")
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	logger := logging.New("mcp")

	store, err := cache.OpenStore(cache.Backend(cfg.CacheBackend), cache.Config{Path: cfg.CachePath})
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("close cache store")
		}
	}()

	client, err := ads.NewClient(ads.ClientConfig{
		Endpoint:        cfg.AdsEndpoint,
		DeveloperToken:  cfg.AdsDeveloperToken,
		AccessToken:     cfg.AdsAccessToken,
		LoginCustomerID: cfg.AdsLoginCustomerID,
	})
	if err != nil {
		return fmt.Errorf("build ads client: %w", err)
	}

	deps := mcpservice.Deps{
		Ads:        ads.NewService(client, cache.NewManager(store), logger, ads.DefaultTTLs()),
		Store:      store,
		StaticUser: cfg.StaticUser,
		Operator:   cfg.Operator,
		Log:        logger,
	}

	transport := mcpservice.TransportKind(cfg.Transport)
	if transport == mcpservice.TransportHTTP {
		verifier, err := auth.NewVerifier(auth.Config{
			Issuer:   cfg.TokenIssuer,
			Audience: cfg.TokenAudience,
			Secret:   []byte(cfg.TokenSecret),
		})
		if err != nil {
			return fmt.Errorf("build token verifier: %w", err)
		}
		deps.Verifier = verifier
	}

	logger.Info().
		Str("backend", cfg.CacheBackend).
		Str("transport", cfg.Transport).
		Msg("starting mcp server")
	return mcpservice.Run(ctx, deps, mcpservice.Config{
		Transport: transport,
		HTTPAddr:  cfg.HTTPAddr,
	})
}
