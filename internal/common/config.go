package common

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"

	"github.com/ternarybob/nivesh/internal/interfaces"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment" validate:"oneof=development production"` // "development" or "production"
	Server      ServerConfig     `toml:"server"`
	Storage     StorageConfig    `toml:"storage"`
	Logging     LoggingConfig    `toml:"logging"`
	Providers   ProvidersConfig  `toml:"providers"`
	Market      MarketConfig     `toml:"market"`
	Memory      MemoryConfig     `toml:"memory"`
	Alerts      AlertsConfig     `toml:"alerts"`
	Reports     ReportsConfig    `toml:"reports"`
	Classifier  ClassifierConfig `toml:"classifier"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	LLM         LLMConfig        `toml:"llm"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Format string   `toml:"format"`                                      // "json" or "text"
	Output []string `toml:"output"`                                      // "stdout", "file"
}

// ProvidersConfig configures the market data provider chain. Order is
// fixed (yahoo → nse → alphavantage); these settings tune each tier.
type ProvidersConfig struct {
	AttemptTimeout time.Duration      `toml:"attempt_timeout"` // Per-provider attempt timeout
	Yahoo          ProviderTierConfig `toml:"yahoo"`
	NSE            ProviderTierConfig `toml:"nse"`
	AlphaVantage   ProviderTierConfig `toml:"alphavantage"`
}

// ProviderTierConfig is shared per-provider tuning
type ProviderTierConfig struct {
	Enabled   bool          `toml:"enabled"`
	BaseURL   string        `toml:"base_url"`
	APIKey    string        `toml:"api_key"`    // Only alphavantage requires a key
	RateLimit time.Duration `toml:"rate_limit"` // Minimum time between requests
}

// MarketConfig tunes the market data gateway
type MarketConfig struct {
	FreshnessWindow  time.Duration `toml:"freshness_window"`  // Cache TTL for quotes
	FetchConcurrency int           `toml:"fetch_concurrency"` // Parallel symbol fetches in FetchMany
	Currency         string        `toml:"currency"`          // Default quote currency
}

// MemoryConfig tunes conversation memory recall
type MemoryConfig struct {
	RecentTurns  int `toml:"recent_turns"`  // Turns included as recent context
	SimilarTurns int `toml:"similar_turns"` // Turns recalled by similarity
}

// AlertsConfig configures the background alert sweep
type AlertsConfig struct {
	SweepEnabled  bool   `toml:"sweep_enabled"`
	SweepSchedule string `toml:"sweep_schedule"` // Cron schedule format
}

// ReportsConfig configures PDF report output
type ReportsConfig struct {
	Dir string `toml:"dir"` // Directory for generated reports
}

// ClassifierConfig configures intent classification
type ClassifierConfig struct {
	RulesFile string `toml:"rules_file"` // Optional YAML file extending the built-in rules
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey         string  `toml:"api_key"`         // Google Gemini API key
	Model          string  `toml:"model"`           // Chat model (default: "gemini-3-flash-preview")
	EmbeddingModel string  `toml:"embedding_model"` // Embedding model (default: "gemini-embedding-001")
	Timeout        string  `toml:"timeout"`         // Operation timeout as duration string (default: "2m")
	RateLimit      string  `toml:"rate_limit"`      // Rate limit duration string (default: "4s" for 15 RPM)
	Temperature    float32 `toml:"temperature"`     // Chat completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`     // Anthropic API key
	Model       string  `toml:"model"`       // Chat model (default: "claude-haiku-3-5-20241022")
	MaxTokens   int     `toml:"max_tokens"`  // Maximum tokens in response (default: 2048)
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "2m")
	RateLimit   string  `toml:"rate_limit"`  // Rate limit duration string (default: "1s")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig contains unified configuration for all AI providers
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"` // "gemini" or "claude"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability.
// Only user-facing settings should be exposed in nivesh.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development", // Default to development mode
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Providers: ProvidersConfig{
			AttemptTimeout: 5 * time.Second,
			Yahoo: ProviderTierConfig{
				Enabled:   true,
				BaseURL:   "https://query1.finance.yahoo.com",
				RateLimit: 500 * time.Millisecond,
			},
			NSE: ProviderTierConfig{
				Enabled:   true,
				BaseURL:   "https://www.nseindia.com/api",
				RateLimit: 1 * time.Second,
			},
			AlphaVantage: ProviderTierConfig{
				Enabled:   true,
				BaseURL:   "https://www.alphavantage.co",
				APIKey:    "",               // User must provide API key (free tier)
				RateLimit: 12 * time.Second, // 5 requests/minute on the free tier
			},
		},
		Market: MarketConfig{
			FreshnessWindow:  5 * time.Second,
			FetchConcurrency: 4,
			Currency:         "INR",
		},
		Memory: MemoryConfig{
			RecentTurns:  6,
			SimilarTurns: 3,
		},
		Alerts: AlertsConfig{
			SweepEnabled:  true,
			SweepSchedule: "*/2 * * * *", // Every 2 minutes
		},
		Reports: ReportsConfig{
			Dir: "./reports",
		},
		Classifier: ClassifierConfig{
			RulesFile: "", // Built-in rules only unless a YAML file is given
		},
		Gemini: GeminiConfig{
			APIKey:         "", // User must provide API key (no fallback)
			Model:          "gemini-3-flash-preview",
			EmbeddingModel: "gemini-embedding-001",
			Timeout:        "2m",
			RateLimit:      "4s", // Default to 4s (15 RPM) for free tier
			Temperature:    0.7,
		},
		Claude: ClaudeConfig{
			APIKey:      "", // User must provide API key (ANTHROPIC_API_KEY or config)
			Model:       "claude-haiku-3-5-20241022",
			MaxTokens:   2048,
			Timeout:     "2m",
			RateLimit:   "1s",
			Temperature: 0.7,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env -> CLI
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// default -> file1 -> file2 -> ... -> env -> CLI. Later files override
// earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		// Unmarshal into config (merges with existing values, later values override)
		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for structurally invalid values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Environment configuration (highest priority: NIVESH_ENV, fallback: GO_ENV)
	if env := os.Getenv("NIVESH_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Server configuration
	if port := os.Getenv("NIVESH_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("NIVESH_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Storage configuration
	if badgerPath := os.Getenv("NIVESH_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	// Logging configuration
	if level := os.Getenv("NIVESH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if format := os.Getenv("NIVESH_LOG_FORMAT"); format != "" {
		config.Logging.Format = format
	}
	if output := os.Getenv("NIVESH_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			trimmed := strings.TrimSpace(o)
			if trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Provider configuration
	if timeout := os.Getenv("NIVESH_PROVIDERS_ATTEMPT_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Providers.AttemptTimeout = d
		}
	}
	if baseURL := os.Getenv("NIVESH_YAHOO_BASE_URL"); baseURL != "" {
		config.Providers.Yahoo.BaseURL = baseURL
	}
	if baseURL := os.Getenv("NIVESH_NSE_BASE_URL"); baseURL != "" {
		config.Providers.NSE.BaseURL = baseURL
	}
	if baseURL := os.Getenv("NIVESH_ALPHAVANTAGE_BASE_URL"); baseURL != "" {
		config.Providers.AlphaVantage.BaseURL = baseURL
	}
	if apiKey := os.Getenv("NIVESH_ALPHAVANTAGE_API_KEY"); apiKey != "" {
		config.Providers.AlphaVantage.APIKey = apiKey
	}

	// Market configuration
	if window := os.Getenv("NIVESH_MARKET_FRESHNESS_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil {
			config.Market.FreshnessWindow = d
		}
	}
	if concurrency := os.Getenv("NIVESH_MARKET_FETCH_CONCURRENCY"); concurrency != "" {
		if c, err := strconv.Atoi(concurrency); err == nil && c > 0 {
			config.Market.FetchConcurrency = c
		}
	}

	// Memory configuration
	if recent := os.Getenv("NIVESH_MEMORY_RECENT_TURNS"); recent != "" {
		if n, err := strconv.Atoi(recent); err == nil && n > 0 {
			config.Memory.RecentTurns = n
		}
	}
	if similar := os.Getenv("NIVESH_MEMORY_SIMILAR_TURNS"); similar != "" {
		if n, err := strconv.Atoi(similar); err == nil && n > 0 {
			config.Memory.SimilarTurns = n
		}
	}

	// Alerts configuration
	if enabled := os.Getenv("NIVESH_ALERTS_SWEEP_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Alerts.SweepEnabled = e
		}
	}
	if schedule := os.Getenv("NIVESH_ALERTS_SWEEP_SCHEDULE"); schedule != "" {
		config.Alerts.SweepSchedule = schedule
	}

	// Reports configuration
	if dir := os.Getenv("NIVESH_REPORTS_DIR"); dir != "" {
		config.Reports.Dir = dir
	}

	// Classifier configuration
	if rulesFile := os.Getenv("NIVESH_CLASSIFIER_RULES_FILE"); rulesFile != "" {
		config.Classifier.RulesFile = rulesFile
	}

	// Gemini configuration
	if apiKey := os.Getenv("NIVESH_GEMINI_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("NIVESH_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if model := os.Getenv("NIVESH_GEMINI_EMBEDDING_MODEL"); model != "" {
		config.Gemini.EmbeddingModel = model
	}
	if timeout := os.Getenv("NIVESH_GEMINI_TIMEOUT"); timeout != "" {
		config.Gemini.Timeout = timeout
	}
	if rateLimit := os.Getenv("NIVESH_GEMINI_RATE_LIMIT"); rateLimit != "" {
		config.Gemini.RateLimit = rateLimit
	}
	if temperature := os.Getenv("NIVESH_GEMINI_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Gemini.Temperature = float32(t)
		}
	}

	// Claude configuration
	if apiKey := os.Getenv("ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if apiKey := os.Getenv("NIVESH_CLAUDE_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey // NIVESH_ prefix takes priority
	}
	if model := os.Getenv("NIVESH_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}
	if maxTokens := os.Getenv("NIVESH_CLAUDE_MAX_TOKENS"); maxTokens != "" {
		if mt, err := strconv.Atoi(maxTokens); err == nil {
			config.Claude.MaxTokens = mt
		}
	}
	if timeout := os.Getenv("NIVESH_CLAUDE_TIMEOUT"); timeout != "" {
		config.Claude.Timeout = timeout
	}
	if rateLimit := os.Getenv("NIVESH_CLAUDE_RATE_LIMIT"); rateLimit != "" {
		config.Claude.RateLimit = rateLimit
	}
	if temperature := os.Getenv("NIVESH_CLAUDE_TEMPERATURE"); temperature != "" {
		if t, err := strconv.ParseFloat(temperature, 32); err == nil {
			config.Claude.Temperature = float32(t)
		}
	}

	// LLM provider configuration
	if provider := os.Getenv("NIVESH_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// ResolveAPIKey resolves an API key by name with environment variable priority.
// Resolution order: environment variables → KV store → config fallback → error.
// This ensures NIVESH_* environment variables always take precedence.
func ResolveAPIKey(ctx context.Context, kvStorage interfaces.KeyValueStorage, name string, configFallback string) (string, error) {
	// Map of KV store key names to environment variable names.
	// Environment variables have highest priority.
	keyToEnvMapping := map[string][]string{
		"gemini_api_key":       {"NIVESH_GEMINI_API_KEY"},
		"anthropic_api_key":    {"NIVESH_CLAUDE_API_KEY"},
		"claude_api_key":       {"NIVESH_CLAUDE_API_KEY"},
		"alphavantage_api_key": {"NIVESH_ALPHAVANTAGE_API_KEY"},
	}

	// For Claude, also check the standard ANTHROPIC_API_KEY env var
	if name == "anthropic_api_key" || name == "claude_api_key" {
		if envValue := os.Getenv("ANTHROPIC_API_KEY"); envValue != "" {
			return envValue, nil
		}
	}

	// Check environment variables (highest priority)
	if envVarNames, hasMappedEnv := keyToEnvMapping[name]; hasMappedEnv {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue, nil
			}
		}
	}

	// Try to resolve from KV store (medium priority - file-based variables)
	if kvStorage != nil {
		apiKey, err := kvStorage.Get(ctx, name)
		if err == nil && apiKey != "" {
			return apiKey, nil
		}
	}

	// Fallback to config value (lowest priority)
	if configFallback != "" {
		return configFallback, nil
	}

	return "", fmt.Errorf("API key '%s' not found in environment, KV store, or config", name)
}
