package config

import (
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Setenv("EXCHANGE_ADDRESS", "0x04f67e8b7c39a25e100847cb167460d715215feb")
	t.Setenv("RELAYER_ADDRESS", "0x93388b4efe13b9b18ed480783c05829dd35fc7ca")
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	setValidEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default log level info, got %q", cfg.LogLevel)
	}
	if cfg.HTTPPort != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.HTTPPort)
	}
	if cfg.ChainID != 1 {
		t.Errorf("expected default chain id 1, got %d", cfg.ChainID)
	}
	if cfg.SettlementMode != "paper" {
		t.Errorf("expected default settlement mode paper, got %q", cfg.SettlementMode)
	}
	if cfg.FillStoreMode != "memory" {
		t.Errorf("expected default fill store mode memory, got %q", cfg.FillStoreMode)
	}
	if cfg.StorageMode != "console" {
		t.Errorf("expected default storage mode console, got %q", cfg.StorageMode)
	}
	if cfg.MarketCacheTTL != 30*time.Second {
		t.Errorf("expected default market cache TTL 30s, got %v", cfg.MarketCacheTTL)
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	setValidEnv(t)
	t.Setenv("CHAIN_ID", "41")
	t.Setenv("SETTLEMENT_MODE", "chain")
	t.Setenv("PROXY_ADDRESS", "0x1111111111111111111111111111111111111111")
	t.Setenv("RELAYER_PRIVATE_KEY", "0202020202020202020202020202020202020202020202020202020202020202")
	t.Setenv("FILL_STORE_MODE", "pebble")
	t.Setenv("MARKET_CACHE_TTL", "5s")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.ChainID != 41 {
		t.Errorf("expected chain id 41, got %d", cfg.ChainID)
	}
	if cfg.SettlementMode != "chain" {
		t.Errorf("expected settlement mode chain, got %q", cfg.SettlementMode)
	}
	if cfg.FillStoreMode != "pebble" {
		t.Errorf("expected fill store mode pebble, got %q", cfg.FillStoreMode)
	}
	if cfg.MarketCacheTTL != 5*time.Second {
		t.Errorf("expected market cache TTL 5s, got %v", cfg.MarketCacheTTL)
	}
}

func TestValidate_Errors(t *testing.T) {
	base := func() *Config {
		return &Config{
			HTTPPort:        "8080",
			ChainID:         1,
			ExchangeAddress: "0x04f67e8b7c39a25e100847cb167460d715215feb",
			RelayerAddress:  "0x93388b4efe13b9b18ed480783c05829dd35fc7ca",
			SettlementMode:  "paper",
			FillStoreMode:   "memory",
			PebblePath:      "data/fills",
			StorageMode:     "console",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.HTTPPort = "" }},
		{"zero chain id", func(c *Config) { c.ChainID = 0 }},
		{"bad exchange address", func(c *Config) { c.ExchangeAddress = "not-hex" }},
		{"missing relayer address", func(c *Config) { c.RelayerAddress = "" }},
		{"unknown settlement mode", func(c *Config) { c.SettlementMode = "dry-run" }},
		{"chain mode without proxy", func(c *Config) { c.SettlementMode = "chain" }},
		{"unknown fill store mode", func(c *Config) { c.FillStoreMode = "redis" }},
		{"pebble without path", func(c *Config) { c.FillStoreMode = "pebble"; c.PebblePath = "" }},
		{"unknown storage mode", func(c *Config) { c.StorageMode = "s3" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestValidate_ChainModeComplete(t *testing.T) {
	cfg := &Config{
		HTTPPort:          "8080",
		ChainID:           41,
		ExchangeAddress:   "0x04f67e8b7c39a25e100847cb167460d715215feb",
		RelayerAddress:    "0x93388b4efe13b9b18ed480783c05829dd35fc7ca",
		SettlementMode:    "chain",
		ProxyAddress:      "0x1111111111111111111111111111111111111111",
		RelayerPrivateKey: "0202020202020202020202020202020202020202020202020202020202020202",
		FillStoreMode:     "memory",
		StorageMode:       "console",
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
