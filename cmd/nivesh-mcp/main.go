package main

import (
	"context"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	arbor_models "github.com/ternarybob/arbor/models"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/providers"
	"github.com/ternarybob/nivesh/internal/services/alerts"
	"github.com/ternarybob/nivesh/internal/services/marketdata"
	"github.com/ternarybob/nivesh/internal/services/portfolio"
	badgerstore "github.com/ternarybob/nivesh/internal/storage/badger"
)

func main() {
	// Load configuration
	configPath := os.Getenv("NIVESH_CONFIG")
	if configPath == "" {
		configPath = "nivesh.toml"
	}

	config, err := common.LoadFromFile(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize minimal logger for MCP server (console only, no file output)
	logger := arbor.NewLogger().WithConsoleWriter(arbor_models.WriterConfiguration{
		Type:             arbor_models.LogWriterTypeConsole,
		TimeFormat:       "15:04:05",
		DisableTimestamp: false,
	}).WithLevelFromString("warn") // Minimal logging to avoid cluttering MCP stdio

	// Initialize storage
	storageManager, err := badgerstore.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize storage")
	}
	defer storageManager.Close()

	// Build market data provider chain in fallback order
	chain := buildProviderChain(config, storageManager.KVStorage(), logger)
	if len(chain) == 0 {
		logger.Fatal().Msg("No market data providers enabled")
	}
	marketService := marketdata.NewGateway(chain, config, logger)

	// Alert evaluation over the shared store; no push notifier over stdio
	alertService := alerts.NewService(storageManager.AlertStorage(), marketService, nil, logger)

	portfolioService := portfolio.NewService(marketService, config.Market.Currency, logger)

	// Create MCP server
	mcpServer := server.NewMCPServer(
		"nivesh",
		common.GetVersion(),
		server.WithToolCapabilities(true),
	)

	// Register market data tools
	mcpServer.AddTool(createGetQuoteTool(), handleGetQuote(marketService, logger))
	mcpServer.AddTool(createGetIndexLevelTool(), handleGetIndexLevel(marketService, logger))

	// Register portfolio tool
	mcpServer.AddTool(createAnalyzePortfolioTool(), handleAnalyzePortfolio(portfolioService, logger))

	// Register alert tools
	mcpServer.AddTool(createSetPriceAlertTool(), handleSetPriceAlert(alertService, logger))
	mcpServer.AddTool(createCheckAlertsTool(), handleCheckAlerts(alertService, logger))

	// Start server (blocks on stdio)
	if err := server.ServeStdio(mcpServer); err != nil {
		logger.Fatal().Err(err).Msg("MCP server failed")
	}
}

// buildProviderChain constructs enabled quote providers in fallback order
func buildProviderChain(config *common.Config, kvStorage interfaces.KeyValueStorage, logger arbor.ILogger) []interfaces.QuoteProvider {
	var chain []interfaces.QuoteProvider

	if config.Providers.Yahoo.Enabled {
		chain = append(chain, providers.NewYahooClient(
			providers.WithYahooBaseURL(config.Providers.Yahoo.BaseURL),
			providers.WithYahooRateLimit(config.Providers.Yahoo.RateLimit),
			providers.WithYahooLogger(logger),
		))
	}

	if config.Providers.NSE.Enabled {
		chain = append(chain, providers.NewNSEClient(
			providers.WithNSEBaseURL(config.Providers.NSE.BaseURL),
			providers.WithNSERateLimit(config.Providers.NSE.RateLimit),
			providers.WithNSELogger(logger),
		))
	}

	if config.Providers.AlphaVantage.Enabled {
		apiKey, err := common.ResolveAPIKey(context.Background(), kvStorage, "alphavantage_api_key", config.Providers.AlphaVantage.APIKey)
		if err == nil && apiKey != "" {
			chain = append(chain, providers.NewAlphaVantageClient(apiKey,
				providers.WithAlphaVantageBaseURL(config.Providers.AlphaVantage.BaseURL),
				providers.WithAlphaVantageRateLimit(config.Providers.AlphaVantage.RateLimit),
				providers.WithAlphaVantageLogger(logger),
			))
		}
	}

	return chain
}
