package config

import (
	"testing"
	"time"

	"go.uber.org/zap"
)

func validConfig() *Config {
	return &Config{
		HTTPPort:                 "8080",
		LedgerFeedChannel:        "pool_resolutions",
		FeedReconnectBackoffMult: 2.0,
		FeedMessageBufferSize:    16,
		StakeUnitsPerToken:       1,
		ReputationCacheItems:     100,
		StorageMode:              "console",
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.HTTPPort != "8080" {
		t.Errorf("expected HTTPPort 8080, got %s", cfg.HTTPPort)
	}
	if cfg.FeedEnabled() {
		t.Error("expected feed to be disabled without LEDGER_FEED_URL")
	}
	if cfg.StakeUnitsPerToken != 1 {
		t.Errorf("expected StakeUnitsPerToken 1, got %d", cfg.StakeUnitsPerToken)
	}
	if cfg.StorageMode != "console" {
		t.Errorf("expected console storage, got %s", cfg.StorageMode)
	}
	if cfg.ReputationCacheTTL != 5*time.Minute {
		t.Errorf("expected 5m cache TTL, got %v", cfg.ReputationCacheTTL)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("LEDGER_FEED_URL", "ws://indexer:9000/ws")
	t.Setenv("FEED_RECONNECT_MAX_DELAY", "1m")
	t.Setenv("FEED_RECONNECT_BACKOFF_MULTIPLIER", "1.5")
	t.Setenv("STAKE_UNITS_PER_TOKEN", "1000000")
	t.Setenv("STORAGE_MODE", "postgres")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !cfg.FeedEnabled() {
		t.Error("expected feed to be enabled")
	}
	if cfg.FeedReconnectMaxDelay != time.Minute {
		t.Errorf("expected 1m max delay, got %v", cfg.FeedReconnectMaxDelay)
	}
	if cfg.FeedReconnectBackoffMult != 1.5 {
		t.Errorf("expected multiplier 1.5, got %f", cfg.FeedReconnectBackoffMult)
	}
	if cfg.StakeUnitsPerToken != 1_000_000 {
		t.Errorf("expected 1000000 units per token, got %d", cfg.StakeUnitsPerToken)
	}
	if cfg.StorageMode != "postgres" {
		t.Errorf("expected postgres storage, got %s", cfg.StorageMode)
	}
}

func TestLoadFromEnv_MalformedFallsBackToDefault(t *testing.T) {
	t.Setenv("FEED_DIAL_TIMEOUT", "soon")
	t.Setenv("FEED_MESSAGE_BUFFER_SIZE", "many")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.FeedDialTimeout != 10*time.Second {
		t.Errorf("expected default dial timeout, got %v", cfg.FeedDialTimeout)
	}
	if cfg.FeedMessageBufferSize != 256 {
		t.Errorf("expected default buffer size, got %d", cfg.FeedMessageBufferSize)
	}
}

func TestLoadFromEnv_InvalidStorageMode(t *testing.T) {
	t.Setenv("STORAGE_MODE", "sqlite")

	_, err := LoadFromEnv()
	if err == nil {
		t.Fatal("expected error for invalid storage mode")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(*Config) {},
		},
		{
			name:    "empty-http-port",
			mutate:  func(c *Config) { c.HTTPPort = "" },
			wantErr: "HTTP_PORT cannot be empty",
		},
		{
			name: "feed-without-channel",
			mutate: func(c *Config) {
				c.LedgerFeedURL = "ws://indexer"
				c.LedgerFeedChannel = ""
			},
			wantErr: "LEDGER_FEED_CHANNEL cannot be empty when LEDGER_FEED_URL is set",
		},
		{
			name:    "shrinking-backoff",
			mutate:  func(c *Config) { c.FeedReconnectBackoffMult = 0.5 },
			wantErr: "FEED_RECONNECT_BACKOFF_MULTIPLIER must be >= 1, got 0.500000",
		},
		{
			name:    "negative-buffer",
			mutate:  func(c *Config) { c.FeedMessageBufferSize = -1 },
			wantErr: "FEED_MESSAGE_BUFFER_SIZE must be non-negative, got -1",
		},
		{
			name:    "bad-contract-address",
			mutate:  func(c *Config) { c.LedgerContractAddress = "0x123" },
			wantErr: `LEDGER_CONTRACT_ADDRESS is not a hex address: "0x123"`,
		},
		{
			name:    "zero-units-per-token",
			mutate:  func(c *Config) { c.StakeUnitsPerToken = 0 },
			wantErr: "STAKE_UNITS_PER_TOKEN must be positive, got 0",
		},
		{
			name:    "zero-cache-items",
			mutate:  func(c *Config) { c.ReputationCacheItems = 0 },
			wantErr: "REPUTATION_CACHE_ITEMS must be positive, got 0",
		},
		{
			name:    "unknown-storage",
			mutate:  func(c *Config) { c.StorageMode = "memory" },
			wantErr: `STORAGE_MODE must be 'console' or 'postgres', got "memory"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if err.Error() != tt.wantErr {
				t.Errorf("expected error %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("valid-level", func(t *testing.T) {
		logger, err := NewLogger("debug")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		defer logger.Sync()
	})

	t.Run("default-level", func(t *testing.T) {
		logger, err := NewLogger("")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !logger.Core().Enabled(zap.InfoLevel) || logger.Core().Enabled(zap.DebugLevel) {
			t.Error("expected info level by default")
		}
	})

	t.Run("invalid-level", func(t *testing.T) {
		if _, err := NewLogger("chatty"); err == nil {
			t.Error("expected error for invalid log level")
		}
	})
}
