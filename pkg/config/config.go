package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Config holds all application configuration.
type Config struct {
	// Application
	LogLevel string
	HTTPPort string

	// Ledger feed. An empty URL disables the feed and the processor.
	LedgerFeedURL             string
	LedgerFeedChannel         string
	FeedDialTimeout           time.Duration
	FeedPongTimeout           time.Duration
	FeedPingInterval          time.Duration
	FeedReconnectInitialDelay time.Duration
	FeedReconnectMaxDelay     time.Duration
	FeedReconnectBackoffMult  float64
	FeedMessageBufferSize     int

	// Ledger RPC, used by inspect-pool
	LedgerRPCURL          string
	LedgerContractAddress string

	// Settlement
	StakeUnitsPerToken int64

	// Cache
	ReputationCacheTTL   time.Duration
	ReputationCacheItems int64

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
		// Application defaults
		LogLevel: getEnvOrDefault("LOG_LEVEL", "info"),
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8080"),

		// Feed defaults
		LedgerFeedURL:             os.Getenv("LEDGER_FEED_URL"),
		LedgerFeedChannel:         getEnvOrDefault("LEDGER_FEED_CHANNEL", "pool_resolutions"),
		FeedDialTimeout:           getDurationOrDefault("FEED_DIAL_TIMEOUT", 10*time.Second),
		FeedPongTimeout:           getDurationOrDefault("FEED_PONG_TIMEOUT", 30*time.Second),
		FeedPingInterval:          getDurationOrDefault("FEED_PING_INTERVAL", 15*time.Second),
		FeedReconnectInitialDelay: getDurationOrDefault("FEED_RECONNECT_INITIAL_DELAY", 1*time.Second),
		FeedReconnectMaxDelay:     getDurationOrDefault("FEED_RECONNECT_MAX_DELAY", 30*time.Second),
		FeedReconnectBackoffMult:  getFloat64OrDefault("FEED_RECONNECT_BACKOFF_MULTIPLIER", 2.0),
		FeedMessageBufferSize:     getIntOrDefault("FEED_MESSAGE_BUFFER_SIZE", 256),

		LedgerRPCURL:          os.Getenv("LEDGER_RPC_URL"),
		LedgerContractAddress: os.Getenv("LEDGER_CONTRACT_ADDRESS"),

		StakeUnitsPerToken: getInt64OrDefault("STAKE_UNITS_PER_TOKEN", 1),

		ReputationCacheTTL:   getDurationOrDefault("REPUTATION_CACHE_TTL", 5*time.Minute),
		ReputationCacheItems: getInt64OrDefault("REPUTATION_CACHE_ITEMS", 10000),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "claimpool"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "claimpool"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "claimpool"),
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

	if c.LedgerFeedURL != "" && c.LedgerFeedChannel == "" {
		return fmt.Errorf("LEDGER_FEED_CHANNEL cannot be empty when LEDGER_FEED_URL is set")
	}

	if c.FeedReconnectBackoffMult < 1.0 {
		return fmt.Errorf("FEED_RECONNECT_BACKOFF_MULTIPLIER must be >= 1, got %f", c.FeedReconnectBackoffMult)
	}

	if c.FeedMessageBufferSize < 0 {
		return fmt.Errorf("FEED_MESSAGE_BUFFER_SIZE must be non-negative, got %d", c.FeedMessageBufferSize)
	}

	if c.LedgerContractAddress != "" && !common.IsHexAddress(c.LedgerContractAddress) {
		return fmt.Errorf("LEDGER_CONTRACT_ADDRESS is not a hex address: %q", c.LedgerContractAddress)
	}

	if c.StakeUnitsPerToken <= 0 {
		return fmt.Errorf("STAKE_UNITS_PER_TOKEN must be positive, got %d", c.StakeUnitsPerToken)
	}

	if c.ReputationCacheItems <= 0 {
		return fmt.Errorf("REPUTATION_CACHE_ITEMS must be positive, got %d", c.ReputationCacheItems)
	}

	if c.StorageMode != "console" && c.StorageMode != "postgres" {
		return fmt.Errorf("STORAGE_MODE must be 'console' or 'postgres', got %q", c.StorageMode)
	}

	return nil
}

// FeedEnabled reports whether the resolution feed should run.
func (c *Config) FeedEnabled() bool {
	return c.LedgerFeedURL != ""
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

func getInt64OrDefault(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intVal, err := strconv.ParseInt(value, 10, 64)
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
