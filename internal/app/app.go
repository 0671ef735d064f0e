package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/nivesh/internal/common"
	"github.com/ternarybob/nivesh/internal/handlers"
	"github.com/ternarybob/nivesh/internal/interfaces"
	"github.com/ternarybob/nivesh/internal/providers"
	"github.com/ternarybob/nivesh/internal/services/alerts"
	"github.com/ternarybob/nivesh/internal/services/chat"
	"github.com/ternarybob/nivesh/internal/services/llm"
	"github.com/ternarybob/nivesh/internal/services/marketdata"
	"github.com/ternarybob/nivesh/internal/services/memory"
	"github.com/ternarybob/nivesh/internal/services/portfolio"
	"github.com/ternarybob/nivesh/internal/services/report"
	"github.com/ternarybob/nivesh/internal/services/scheduler"
	"github.com/ternarybob/nivesh/internal/services/websearch"
	badgerstore "github.com/ternarybob/nivesh/internal/storage/badger"
	"github.com/ternarybob/nivesh/internal/vector"
)

// App holds all application components and dependencies
type App struct {
	Config         *common.Config
	Logger         arbor.ILogger
	StorageManager interfaces.StorageManager

	// Core services
	MarketService    interfaces.MarketDataService
	AlertService     interfaces.AlertService
	PortfolioService interfaces.PortfolioService
	MemoryService    interfaces.MemoryService
	LLMService       interfaces.LLMService
	SearchService    interfaces.SearchService
	ReportService    interfaces.ReportService
	ChatService      interfaces.ChatService
	SchedulerService *scheduler.Service

	// HTTP handlers
	APIHandler    *handlers.APIHandler
	ChatHandler   *handlers.ChatHandler
	MarketHandler *handlers.MarketHandler
	AlertHandler  *handlers.AlertHandler
	WSHandler     *handlers.WebSocketHandler
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initStorage(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.initHandlers()

	if cfg.Alerts.SweepEnabled {
		if err := app.SchedulerService.Start(cfg.Alerts.SweepSchedule); err != nil {
			return nil, fmt.Errorf("failed to start alert sweep: %w", err)
		}
	} else {
		logger.Info().Msg("Alert sweep disabled by configuration")
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Bool("sweep_enabled", cfg.Alerts.SweepEnabled).
		Msg("Application initialization complete")

	return app, nil
}

// initStorage initializes the storage layer (Badger)
func (a *App) initStorage() error {
	manager, err := badgerstore.NewManager(a.Logger, &a.Config.Storage.Badger)
	if err != nil {
		return err
	}

	a.StorageManager = manager
	a.Logger.Debug().
		Str("storage", "badger").
		Str("path", a.Config.Storage.Badger.Path).
		Msg("Storage layer initialized")

	return nil
}

// initServices wires the service graph bottom-up: providers, gateway,
// evaluator, memory, then the orchestrator that depends on all of them
func (a *App) initServices() error {
	kvStorage := a.StorageManager.KVStorage()

	// Market data provider chain, in fallback order
	chain, err := a.buildProviderChain(kvStorage)
	if err != nil {
		return err
	}
	if len(chain) == 0 {
		return fmt.Errorf("no market data providers enabled")
	}
	a.MarketService = marketdata.NewGateway(chain, a.Config, a.Logger)

	// WebSocket hub doubles as the alert notifier
	a.WSHandler = handlers.NewWebSocketHandler(a.Logger)
	a.AlertService = alerts.NewService(a.StorageManager.AlertStorage(), a.MarketService, a.WSHandler, a.Logger)

	a.PortfolioService = portfolio.NewService(a.MarketService, a.Config.Market.Currency, a.Logger)

	a.LLMService = llm.NewService(a.Config, kvStorage, a.Logger)

	store, ok := a.StorageManager.DB().(*badgerhold.Store)
	if !ok {
		return fmt.Errorf("storage manager returned unexpected store type")
	}
	vectorStore := vector.NewStore(store, a.Logger)
	a.MemoryService = memory.NewService(a.StorageManager.ConversationStorage(), vectorStore, a.LLMService, a.Logger)

	a.SearchService = websearch.NewService(a.Logger)
	a.ReportService = report.NewService(a.Config.Reports.Dir, a.Logger)

	classifier, err := chat.NewClassifier(a.Config.Classifier.RulesFile, a.Logger)
	if err != nil {
		return err
	}
	a.ChatService = chat.NewService(
		classifier,
		a.MarketService,
		a.AlertService,
		a.PortfolioService,
		a.MemoryService,
		a.LLMService,
		a.SearchService,
		a.ReportService,
		chat.Options{
			RecentTurns:  a.Config.Memory.RecentTurns,
			SimilarTurns: a.Config.Memory.SimilarTurns,
		},
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.AlertService, a.Logger)

	return nil
}

// buildProviderChain constructs the enabled quote providers in fallback
// order: yahoo, then nse, then alphavantage
func (a *App) buildProviderChain(kvStorage interfaces.KeyValueStorage) ([]interfaces.QuoteProvider, error) {
	var chain []interfaces.QuoteProvider

	if a.Config.Providers.Yahoo.Enabled {
		chain = append(chain, providers.NewYahooClient(
			providers.WithYahooBaseURL(a.Config.Providers.Yahoo.BaseURL),
			providers.WithYahooRateLimit(a.Config.Providers.Yahoo.RateLimit),
			providers.WithYahooLogger(a.Logger),
		))
	}

	if a.Config.Providers.NSE.Enabled {
		chain = append(chain, providers.NewNSEClient(
			providers.WithNSEBaseURL(a.Config.Providers.NSE.BaseURL),
			providers.WithNSERateLimit(a.Config.Providers.NSE.RateLimit),
			providers.WithNSELogger(a.Logger),
		))
	}

	if a.Config.Providers.AlphaVantage.Enabled {
		apiKey, err := common.ResolveAPIKey(context.Background(), kvStorage, "alphavantage_api_key", a.Config.Providers.AlphaVantage.APIKey)
		if err != nil || apiKey == "" {
			a.Logger.Warn().Msg("Alpha Vantage enabled but no API key resolved, skipping provider")
		} else {
			chain = append(chain, providers.NewAlphaVantageClient(apiKey,
				providers.WithAlphaVantageBaseURL(a.Config.Providers.AlphaVantage.BaseURL),
				providers.WithAlphaVantageRateLimit(a.Config.Providers.AlphaVantage.RateLimit),
				providers.WithAlphaVantageLogger(a.Logger),
			))
		}
	}

	names := make([]string, 0, len(chain))
	for _, provider := range chain {
		names = append(names, provider.Name())
	}
	a.Logger.Info().Str("providers", strings.Join(names, ",")).Msg("Market data provider chain built")

	return chain, nil
}

// initHandlers creates the HTTP handlers over the service graph
func (a *App) initHandlers() {
	a.APIHandler = handlers.NewAPIHandler()
	a.ChatHandler = handlers.NewChatHandler(a.ChatService, a.Logger)
	a.MarketHandler = handlers.NewMarketHandler(a.MarketService, a.Logger)
	a.AlertHandler = handlers.NewAlertHandler(a.AlertService, a.Logger)
}

// Close shuts down all components in reverse dependency order
func (a *App) Close() error {
	if a.SchedulerService != nil {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Scheduler shutdown failed")
		}
	}

	if a.WSHandler != nil {
		a.WSHandler.Close()
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("LLM service shutdown failed")
		}
	}

	if a.StorageManager != nil {
		if err := a.StorageManager.Close(); err != nil {
			return fmt.Errorf("failed to close storage: %w", err)
		}
	}

	a.Logger.Info().Msg("Application shut down")
	return nil
}
