// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/fd1az/dex-arbitrage-scanner/internal/apperror"
)

// History backends.
const (
	HistoryBackendFile     = "file"
	HistoryBackendPostgres = "postgres"
)

// knownVenues are the venues the scanner can build clients for.
var knownVenues = map[string]bool{"jupiter": true, "raydium": true, "orca": true, "meteora": true}

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Jupiter   JupiterConfig   `mapstructure:"jupiter"`
	Raydium   RaydiumConfig   `mapstructure:"raydium"`
	Reference ReferenceConfig `mapstructure:"reference"`
	History   HistoryConfig   `mapstructure:"history"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Health    HealthConfig    `mapstructure:"health"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"` // Rotated with lumberjack when set
}

// ScanConfig controls pair selection and the profitability decision.
type ScanConfig struct {
	Pairs         []string           `mapstructure:"pairs"` // e.g. "SOL/USDC"; empty = discover
	Discover      bool               `mapstructure:"discover"`
	MaxPairs      int                `mapstructure:"max_pairs"`
	MinLiquidity  float64            `mapstructure:"min_liquidity"`
	Concurrency   int                `mapstructure:"concurrency"`
	RoundTimeout  time.Duration      `mapstructure:"round_timeout"`
	Interval      time.Duration      `mapstructure:"interval"`
	MinProfitPct  float64            `mapstructure:"min_profit_pct"`
	NetworkFeePct float64            `mapstructure:"network_fee_pct"`
	DefaultFeePct float64            `mapstructure:"default_fee_pct"`
	Fees          map[string]float64 `mapstructure:"fees"`   // venue -> fee pct
	Venues        []string           `mapstructure:"venues"` // enabled venues, in priority order
	WatchMode     bool               `mapstructure:"-"`      // Set at runtime, not from config file
}

// MinProfitPctDecimal returns the profitability threshold as decimal.Decimal.
func (c *ScanConfig) MinProfitPctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.MinProfitPct)
}

// NetworkFeePctDecimal returns the network fee as decimal.Decimal.
func (c *ScanConfig) NetworkFeePctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.NetworkFeePct)
}

// DefaultFeePctDecimal returns the fee for unlisted venues as decimal.Decimal.
func (c *ScanConfig) DefaultFeePctDecimal() decimal.Decimal {
	return decimal.NewFromFloat(c.DefaultFeePct)
}

// FeesDecimal returns the venue fee table as decimal.Decimal values.
func (c *ScanConfig) FeesDecimal() map[string]decimal.Decimal {
	result := make(map[string]decimal.Decimal, len(c.Fees))
	for venue, fee := range c.Fees {
		result[venue] = decimal.NewFromFloat(fee)
	}
	return result
}

// RetryConfig bounds per-venue retries.
type RetryConfig struct {
	MaxAttempts       int           `mapstructure:"max_attempts"`
	BaseDelay         time.Duration `mapstructure:"base_delay"`
	MaxTotalTime      time.Duration `mapstructure:"max_total_time"`
	PerAttemptTimeout time.Duration `mapstructure:"per_attempt_timeout"`
}

// JupiterConfig holds the Jupiter API endpoints.
type JupiterConfig struct {
	PriceURL          string `mapstructure:"price_url"`
	QuoteURL          string `mapstructure:"quote_url"`
	QuoteAmount       uint64 `mapstructure:"quote_amount"`
	SlippageBps       int    `mapstructure:"slippage_bps"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute"`
}

// RaydiumConfig holds the pool listing settings.
type RaydiumConfig struct {
	PairsURL          string        `mapstructure:"pairs_url"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	StaleRetention    time.Duration `mapstructure:"stale_retention"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
}

// ReferenceConfig holds the USD reference price sources.
type ReferenceConfig struct {
	CoinGeckoURL  string        `mapstructure:"coingecko_url"`
	CoinGeckoID   string        `mapstructure:"coingecko_id"`
	BinanceWSURL  string        `mapstructure:"binance_ws_url"`  // wss://stream.binance.com:9443
	BinanceAPIURL string        `mapstructure:"binance_api_url"` // https://api.binance.com
	BinanceSymbol string        `mapstructure:"binance_symbol"`
	StaleAfter    time.Duration `mapstructure:"stale_after"`
	Timeout       time.Duration `mapstructure:"timeout"`
	FallbackUSD   float64       `mapstructure:"fallback_usd"`
}

// HistoryConfig selects and configures the history store.
type HistoryConfig struct {
	Backend        string        `mapstructure:"backend"`
	Dir            string        `mapstructure:"dir"`
	Cap            int           `mapstructure:"cap"`
	MinTrendPoints int           `mapstructure:"min_trend_points"`
	PostgresDSN    string        `mapstructure:"postgres_dsn"`
	Archive        ArchiveConfig `mapstructure:"archive"`
}

// ArchiveConfig holds the S3 destination for closed day partitions.
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"` // S3-compatible endpoint (MinIO, LocalStack)
	// Static credentials; empty uses the default AWS credential chain.
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// RedisConfig holds the shared pool cache connection.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	TraceProvider  string `mapstructure:"trace_provider"` // zipkin, otlp-grpc, otlp-http, stdout
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// HealthConfig holds the health server settings.
type HealthConfig struct {
	Port int `mapstructure:"port"` // 0 disables the server
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("ARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperror.New(apperror.CodeConfigurationError,
				apperror.WithContext("failed to read config"),
				apperror.WithCause(err))
		}
		// Config file not found is OK, use env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, apperror.New(apperror.CodeConfigurationError,
			apperror.WithContext("failed to unmarshal config"),
			apperror.WithCause(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// App
	v.BindEnv("app.name", "ARB_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "ARB_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "ARB_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.log_file", "ARB_LOG_FILE")

	// Scan
	v.BindEnv("scan.pairs", "ARB_PAIRS")
	v.BindEnv("scan.min_profit_pct", "ARB_MIN_PROFIT_PCT")
	v.BindEnv("scan.concurrency", "ARB_CONCURRENCY")

	// Reference
	v.BindEnv("reference.binance_ws_url", "ARB_BINANCE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("reference.fallback_usd", "ARB_REFERENCE_FALLBACK_USD")

	// History
	v.BindEnv("history.backend", "ARB_HISTORY_BACKEND")
	v.BindEnv("history.dir", "ARB_HISTORY_DIR")
	v.BindEnv("history.postgres_dsn", "ARB_POSTGRES_DSN", "DATABASE_URL")
	v.BindEnv("history.archive.bucket", "ARB_ARCHIVE_BUCKET")
	v.BindEnv("history.archive.endpoint", "ARB_ARCHIVE_ENDPOINT", "AWS_ENDPOINT_URL_S3")
	v.BindEnv("history.archive.region", "ARB_ARCHIVE_REGION", "AWS_REGION")
	v.BindEnv("history.archive.access_key", "ARB_ARCHIVE_ACCESS_KEY")
	v.BindEnv("history.archive.secret_key", "ARB_ARCHIVE_SECRET_KEY")

	// Redis
	v.BindEnv("redis.addr", "ARB_REDIS_ADDR", "REDIS_ADDR")
	v.BindEnv("redis.password", "ARB_REDIS_PASSWORD", "REDIS_PASSWORD")

	// Telemetry
	v.BindEnv("telemetry.enabled", "ARB_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "ARB_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "ARB_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "dex-arbitrage-scanner")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	// Scan defaults
	v.SetDefault("scan.discover", true)
	v.SetDefault("scan.max_pairs", 20)
	v.SetDefault("scan.min_liquidity", 50000)
	v.SetDefault("scan.concurrency", 4)
	v.SetDefault("scan.round_timeout", "10s")
	v.SetDefault("scan.interval", "30s")
	v.SetDefault("scan.min_profit_pct", 0.2)
	v.SetDefault("scan.network_fee_pct", 0.02)
	v.SetDefault("scan.default_fee_pct", 0.25)
	v.SetDefault("scan.fees", map[string]float64{
		"jupiter": 0.25,
		"raydium": 0.25,
		"orca":    0.25,
		"meteora": 0.2,
	})
	v.SetDefault("scan.venues", []string{"jupiter", "raydium", "orca", "meteora"})

	// Retry defaults
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay", "250ms")
	v.SetDefault("retry.max_total_time", "4s")
	v.SetDefault("retry.per_attempt_timeout", "3s")

	// Jupiter defaults
	v.SetDefault("jupiter.price_url", "https://price.jup.ag/v6/price")
	v.SetDefault("jupiter.quote_url", "https://quote-api.jup.ag/v6/quote")
	v.SetDefault("jupiter.quote_amount", 1_000_000_000)
	v.SetDefault("jupiter.slippage_bps", 50)
	v.SetDefault("jupiter.requests_per_minute", 600)

	// Raydium defaults
	v.SetDefault("raydium.pairs_url", "https://api.raydium.io/v2/main/pairs")
	v.SetDefault("raydium.cache_ttl", "600s")
	v.SetDefault("raydium.stale_retention", "24h")
	v.SetDefault("raydium.requests_per_minute", 60)

	// Reference defaults
	v.SetDefault("reference.coingecko_url", "https://api.coingecko.com/api/v3/simple/price")
	v.SetDefault("reference.coingecko_id", "solana")
	v.SetDefault("reference.binance_ws_url", "wss://stream.binance.com:9443")
	v.SetDefault("reference.binance_api_url", "https://api.binance.com")
	v.SetDefault("reference.binance_symbol", "SOLUSDT")
	v.SetDefault("reference.stale_after", "10s")
	v.SetDefault("reference.timeout", "5s")
	v.SetDefault("reference.fallback_usd", 100)

	// History defaults
	v.SetDefault("history.backend", HistoryBackendFile)
	v.SetDefault("history.dir", "data/history")
	v.SetDefault("history.cap", 1000)
	v.SetDefault("history.min_trend_points", 10)
	v.SetDefault("history.archive.enabled", false)
	v.SetDefault("history.archive.prefix", "history/")
	v.SetDefault("history.archive.region", "us-east-1")

	// Redis defaults
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "dex-arbitrage-scanner")
	v.SetDefault("telemetry.trace_provider", "otlp-grpc")
	v.SetDefault("telemetry.prometheus_port", 9090)

	// Health defaults
	v.SetDefault("health.port", 8080)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Scan.MinProfitPct < 0 {
		return invalid("scan.min_profit_pct must not be negative: %v", c.Scan.MinProfitPct)
	}
	if c.Scan.NetworkFeePct < 0 {
		return invalid("scan.network_fee_pct must not be negative: %v", c.Scan.NetworkFeePct)
	}
	if c.Scan.DefaultFeePct < 0 {
		return invalid("scan.default_fee_pct must not be negative: %v", c.Scan.DefaultFeePct)
	}
	for venue, fee := range c.Scan.Fees {
		if fee < 0 {
			return invalid("scan.fees.%s must not be negative: %v", venue, fee)
		}
	}
	if c.Scan.Concurrency < 1 {
		return invalid("scan.concurrency must be at least 1: %d", c.Scan.Concurrency)
	}
	if c.Scan.RoundTimeout <= 0 {
		return invalid("scan.round_timeout must be positive")
	}
	if len(c.Scan.Venues) == 0 {
		return invalid("scan.venues cannot be empty")
	}
	for _, v := range c.Scan.Venues {
		if !knownVenues[strings.ToLower(v)] {
			return invalid("unknown venue in scan.venues: %q", v)
		}
	}
	if c.Retry.MaxAttempts < 1 {
		return invalid("retry.max_attempts must be at least 1: %d", c.Retry.MaxAttempts)
	}
	if c.Reference.FallbackUSD <= 0 {
		return invalid("reference.fallback_usd must be positive: %v", c.Reference.FallbackUSD)
	}
	if c.History.Cap < 1 {
		return invalid("history.cap must be at least 1: %d", c.History.Cap)
	}
	switch c.History.Backend {
	case HistoryBackendFile:
		if c.History.Dir == "" {
			return invalid("history.dir is required for the file backend")
		}
	case HistoryBackendPostgres:
		if c.History.PostgresDSN == "" {
			return invalid("history.postgres_dsn is required for the postgres backend")
		}
	default:
		return invalid("unknown history.backend: %q", c.History.Backend)
	}
	if c.History.Archive.Enabled && c.History.Archive.Bucket == "" {
		return invalid("history.archive.bucket is required when archiving is enabled")
	}
	return nil
}

func invalid(format string, args ...any) error {
	return apperror.New(apperror.CodeConfigurationError,
		apperror.WithContext(fmt.Sprintf(format, args...)))
}
