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

	// Exchange identity, bound into every order hash
	ChainID         int64
	ExchangeName    string
	ExchangeVersion string
	ExchangeAddress string
	RelayerAddress  string

	// Chain access
	RPCURL            string
	ProxyAddress      string
	RelayerPrivateKey string

	// Settlement: "paper" keeps balances in an in-memory ledger,
	// "chain" submits batches to the deployed transfer proxy
	SettlementMode string

	// Fill records
	FillStoreMode string // "memory" or "pebble"
	PebblePath    string

	// Market snapshot cache
	MarketCacheTTL  time.Duration
	MarketCacheSize int64

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

		// Exchange identity defaults
		ChainID:         getInt64OrDefault("CHAIN_ID", 1),
		ExchangeName:    getEnvOrDefault("EXCHANGE_NAME", "Mai Protocol"),
		ExchangeVersion: getEnvOrDefault("EXCHANGE_VERSION", "1"),
		ExchangeAddress: os.Getenv("EXCHANGE_ADDRESS"),
		RelayerAddress:  os.Getenv("RELAYER_ADDRESS"),

		// Chain defaults
		RPCURL:            getEnvOrDefault("RPC_URL", "http://localhost:8545"),
		ProxyAddress:      os.Getenv("PROXY_ADDRESS"),
		RelayerPrivateKey: os.Getenv("RELAYER_PRIVATE_KEY"),

		// Settlement defaults
		SettlementMode: getEnvOrDefault("SETTLEMENT_MODE", "paper"),

		// Fill record defaults
		FillStoreMode: getEnvOrDefault("FILL_STORE_MODE", "memory"),
		PebblePath:    getEnvOrDefault("PEBBLE_PATH", "data/fills"),

		// Market cache defaults
		MarketCacheTTL:  getDurationOrDefault("MARKET_CACHE_TTL", 30*time.Second),
		MarketCacheSize: int64(getIntOrDefault("MARKET_CACHE_SIZE", 1024)),

		// Storage defaults
		StorageMode:  getEnvOrDefault("STORAGE_MODE", "console"),
		PostgresHost: getEnvOrDefault("POSTGRES_HOST", "localhost"),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		PostgresUser: getEnvOrDefault("POSTGRES_USER", "mai"),
		PostgresPass: getEnvOrDefault("POSTGRES_PASSWORD", "mai123"),
		PostgresDB:   getEnvOrDefault("POSTGRES_DB", "mai_protocol"),
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

	if c.ChainID <= 0 {
		return fmt.Errorf("CHAIN_ID must be positive, got %d", c.ChainID)
	}

	if c.ExchangeAddress == "" || !common.IsHexAddress(c.ExchangeAddress) {
		return fmt.Errorf("EXCHANGE_ADDRESS must be a hex address, got %q", c.ExchangeAddress)
	}

	if c.RelayerAddress == "" || !common.IsHexAddress(c.RelayerAddress) {
		return fmt.Errorf("RELAYER_ADDRESS must be a hex address, got %q", c.RelayerAddress)
	}

	if c.SettlementMode != "paper" && c.SettlementMode != "chain" {
		return fmt.Errorf("SETTLEMENT_MODE must be 'paper' or 'chain', got %q", c.SettlementMode)
	}

	if c.SettlementMode == "chain" {
		if c.ProxyAddress == "" || !common.IsHexAddress(c.ProxyAddress) {
			return fmt.Errorf("PROXY_ADDRESS must be a hex address in chain mode, got %q", c.ProxyAddress)
		}
		if c.RelayerPrivateKey == "" {
			return fmt.Errorf("RELAYER_PRIVATE_KEY cannot be empty in chain mode")
		}
	}

	if c.FillStoreMode != "memory" && c.FillStoreMode != "pebble" {
		return fmt.Errorf("FILL_STORE_MODE must be 'memory' or 'pebble', got %q", c.FillStoreMode)
	}

	if c.FillStoreMode == "pebble" && c.PebblePath == "" {
		return fmt.Errorf("PEBBLE_PATH cannot be empty in pebble mode")
	}

	if c.StorageMode != "postgres" && c.StorageMode != "console" {
		return fmt.Errorf("STORAGE_MODE must be 'postgres' or 'console', got %q", c.StorageMode)
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
