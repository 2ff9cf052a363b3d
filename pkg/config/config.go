package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Odds provider
	OddsAPIKey             string
	OddsAPIURL             string
	OddsAPIRegions         string
	ProviderMaxAttempts    int
	ProviderInitialBackoff time.Duration
	ProviderMaxBackoff     time.Duration
	ProviderRatePerSec     float64

	// Scanning
	ScanInterval   time.Duration
	Sports         []string
	Markets        []string
	HeartbeatEvery int
	CleanupEvery   int

	// Detection
	MinEdge                float64
	MinMiddleWidth         float64
	TotalsMiddleEdgeFloor  float64
	SpreadsMiddleEdgeFloor float64
	StakeDefault           float64

	// Bundling
	BundleWindow      time.Duration
	MaxPerEventBundle int

	// Dedup
	DedupeTTL     time.Duration
	DedupeBackend string // "memory" or "redis"
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Paper fill simulation defaults
	PaperLatencyMsMin       int
	PaperLatencyMsMax       int
	PaperSlippageBps        float64
	PaperMissFillProb       float64
	PaperMaxLegOddsWorsen   float64
	PaperFillEvenIfEdgeLost bool

	// Notifications
	NotifyRatePerSec float64
	TelegramBotToken string

	// Storage
	StorageMode  string // "postgres" or "console"
	PostgresHost string
	PostgresPort string
	PostgresUser string
	PostgresPass string
	PostgresDB   string
	PostgresSSL  string
}

// LoadFromEnv loads configuration from environment variables with defaults.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		OddsAPIKey:             os.Getenv("ODDS_API_KEY"),
		OddsAPIURL:             getEnvOrDefault("ODDS_API_URL", "https://api.the-odds-api.com/v4"),
		OddsAPIRegions:         getEnvOrDefault("ODDS_API_REGIONS", "us"),
		ProviderMaxAttempts:    getIntOrDefault("PROVIDER_MAX_ATTEMPTS", 5),
		ProviderInitialBackoff: getDurationOrDefault("PROVIDER_INITIAL_BACKOFF", 2*time.Second),
		ProviderMaxBackoff:     getDurationOrDefault("PROVIDER_MAX_BACKOFF", 30*time.Second),
		ProviderRatePerSec:     getFloat64OrDefault("PROVIDER_RATE_PER_SEC", 2),

		ScanInterval:   getDurationOrDefault("SCAN_INTERVAL", 10*time.Second),
		Sports:         getStringSliceOrDefault("SPORTS", []string{"all"}),
		Markets:        getStringSliceOrDefault("MARKETS", []string{"h2h", "totals", "spreads"}),
		HeartbeatEvery: getIntOrDefault("HEARTBEAT_EVERY", 6),
		CleanupEvery:   getIntOrDefault("CLEANUP_EVERY", 60),

		MinEdge:                getFloat64OrDefault("MIN_EDGE", 0.5),
		MinMiddleWidth:         getFloat64OrDefault("MIN_MIDDLE_WIDTH", 0.5),
		TotalsMiddleEdgeFloor:  getFloat64OrDefault("TOTALS_MIDDLE_EDGE_FLOOR", -5),
		SpreadsMiddleEdgeFloor: getFloat64OrDefault("SPREADS_MIDDLE_EDGE_FLOOR", -10),
		StakeDefault:           getFloat64OrDefault("STAKE_DEFAULT", 100),

		BundleWindow:      getDurationOrDefault("BUNDLE_WINDOW", 10*time.Second),
		MaxPerEventBundle: getIntOrDefault("MAX_PER_EVENT_BUNDLE", 5),

		DedupeTTL:     getDurationOrDefault("DEDUPE_TTL", 180*time.Second),
		DedupeBackend: getEnvOrDefault("DEDUPE_BACKEND", "memory"),
		RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getIntOrDefault("REDIS_DB", 0),

		PaperLatencyMsMin:       getIntOrDefault("PAPER_LATENCY_MS_MIN", 400),
		PaperLatencyMsMax:       getIntOrDefault("PAPER_LATENCY_MS_MAX", 2200),
		PaperSlippageBps:        getFloat64OrDefault("PAPER_SLIPPAGE_BPS", 35),
		PaperMissFillProb:       getFloat64OrDefault("PAPER_MISS_FILL_PROB", 0.08),
		PaperMaxLegOddsWorsen:   getFloat64OrDefault("PAPER_MAX_LEG_ODDS_WORSEN", 0.15),
		PaperFillEvenIfEdgeLost: getBoolOrDefault("PAPER_FILL_EVEN_IF_EDGE_LOST", false),

		NotifyRatePerSec: getFloat64OrDefault("NOTIFY_RATE_PER_SEC", 1),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),

		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "odds"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "odds"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "odds_trader"),
		PostgresSSL:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
	}

	err := cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// Validate checks that configuration values are valid.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT cannot be empty")
	}

	if c.ScanInterval <= 0 {
		return fmt.Errorf("SCAN_INTERVAL must be positive, got %s", c.ScanInterval)
	}

	if c.ProviderMaxAttempts < 1 {
		return fmt.Errorf("PROVIDER_MAX_ATTEMPTS must be at least 1, got %d", c.ProviderMaxAttempts)
	}

	if c.MinEdge < 0 {
		return fmt.Errorf("MIN_EDGE cannot be negative, got %f", c.MinEdge)
	}

	if c.MinMiddleWidth <= 0 {
		return fmt.Errorf("MIN_MIDDLE_WIDTH must be positive, got %f", c.MinMiddleWidth)
	}

	if c.StakeDefault <= 0 {
		return fmt.Errorf("STAKE_DEFAULT must be positive, got %f", c.StakeDefault)
	}

	if c.BundleWindow <= 0 {
		return fmt.Errorf("BUNDLE_WINDOW must be positive, got %s", c.BundleWindow)
	}

	if c.MaxPerEventBundle < 1 {
		return fmt.Errorf("MAX_PER_EVENT_BUNDLE must be at least 1, got %d", c.MaxPerEventBundle)
	}

	if c.DedupeTTL <= 0 {
		return fmt.Errorf("DEDUPE_TTL must be positive, got %s", c.DedupeTTL)
	}

	if c.DedupeBackend != "memory" && c.DedupeBackend != "redis" {
		return fmt.Errorf("DEDUPE_BACKEND must be 'memory' or 'redis', got %q", c.DedupeBackend)
	}

	if c.DedupeBackend == "redis" && c.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR is required when DEDUPE_BACKEND is 'redis'")
	}

	if c.PaperLatencyMsMin < 0 || c.PaperLatencyMsMax < c.PaperLatencyMsMin {
		return fmt.Errorf("PAPER_LATENCY_MS_MIN/MAX must satisfy 0 <= min <= max, got %d/%d",
			c.PaperLatencyMsMin, c.PaperLatencyMsMax)
	}

	if c.PaperMissFillProb < 0 || c.PaperMissFillProb > 1 {
		return fmt.Errorf("PAPER_MISS_FILL_PROB must be between 0 and 1, got %f", c.PaperMissFillProb)
	}

	if c.PaperSlippageBps < 0 || c.PaperMaxLegOddsWorsen < 0 {
		return fmt.Errorf("PAPER_SLIPPAGE_BPS and PAPER_MAX_LEG_ODDS_WORSEN cannot be negative")
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

// ValidateProvider checks the settings needed to call the odds provider.
func (c *Config) ValidateProvider() error {
	if c.OddsAPIKey == "" {
		return fmt.Errorf("ODDS_API_KEY is required")
	}
	if c.OddsAPIURL == "" {
		return fmt.Errorf("ODDS_API_URL cannot be empty")
	}
	return nil
}

func getEnvOrDefault(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getFloat64OrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	floatVal, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}

	return floatVal
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolVal, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolVal
}

// getStringSliceOrDefault splits a comma-separated value, dropping blanks.
func getStringSliceOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}

	return out
}
