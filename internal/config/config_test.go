package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SOLANA_RPC_URL", "https://rpc.example.org")
	t.Setenv("HTTP_CACHE_TTL", "30s")
	t.Setenv("PUMPFUN_ENDPOINTS", "http://a/coins, ,http://b/coins")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %v, want %v", cfg.Server.Port, "9090")
	}
	if cfg.HTTP.CacheTTL != 30*time.Second {
		t.Errorf("HTTP.CacheTTL = %v, want %v", cfg.HTTP.CacheTTL, 30*time.Second)
	}
	if cfg.HTTP.FailureThreshold != 3 {
		t.Errorf("HTTP.FailureThreshold = %v, want 3", cfg.HTTP.FailureThreshold)
	}
	if len(cfg.Market.PumpfunEndpoints) != 2 {
		t.Errorf("PumpfunEndpoints = %v, want 2 entries", cfg.Market.PumpfunEndpoints)
	}
	if !cfg.RPCBudget.Enrichment {
		t.Error("enrichment should default on for a private RPC endpoint")
	}
}

func TestLoadConfigPublicRPCDisablesEnrichment(t *testing.T) {
	t.Setenv("SOLANA_RPC_URL", PublicMainnetRPC)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.RPCBudget.Enrichment {
		t.Error("enrichment should default off on the public endpoint")
	}
	if got := cfg.RPCEndpoints(); len(got) != 1 || got[0] != PublicMainnetRPC {
		t.Errorf("RPCEndpoints() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Solana:    SolanaConfig{RPCPrimary: "https://rpc.example.org"},
			HTTP:      HTTPConfig{FailureThreshold: 3},
			Cache:     CacheConfig{Backend: CacheBackendMemory},
			RPCBudget: RPCBudgetConfig{Enabled: true, TotalCredits: 100, CoreCredits: 60},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "non-http rpc url", mutate: func(c *Config) { c.Solana.RPCPrimary = "ws://rpc" }, wantErr: true},
		{name: "non-http secondary", mutate: func(c *Config) { c.Solana.RPCSecondary = "rpc" }, wantErr: true},
		{name: "zero threshold", mutate: func(c *Config) { c.HTTP.FailureThreshold = 0 }, wantErr: true},
		{name: "unknown cache backend", mutate: func(c *Config) { c.Cache.Backend = "memcached" }, wantErr: true},
		{name: "core exceeds total", mutate: func(c *Config) { c.RPCBudget.CoreCredits = 200 }, wantErr: true},
		{name: "budget disabled ignores pools", mutate: func(c *Config) {
			c.RPCBudget.Enabled = false
			c.RPCBudget.CoreCredits = 200
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue int
		envValue     string
		want         int
	}{
		{name: "returns integer when valid", key: "TEST_INT", defaultValue: 100, envValue: "200", want: 200},
		{name: "returns default when invalid", key: "TEST_INT_INVALID", defaultValue: 100, envValue: "invalid", want: 100},
		{name: "returns default when not set", key: "TEST_INT_NOTSET", defaultValue: 100, want: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnvAsInt(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvAsInt() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue time.Duration
		envValue     string
		want         time.Duration
	}{
		{name: "returns duration when valid", key: "TEST_DURATION", defaultValue: 10 * time.Second, envValue: "30s", want: 30 * time.Second},
		{name: "returns default when invalid", key: "TEST_DURATION_INVALID", defaultValue: 10 * time.Second, envValue: "invalid", want: 10 * time.Second},
		{name: "returns default when not set", key: "TEST_DURATION_NOTSET", defaultValue: 10 * time.Second, want: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv(tt.key, tt.envValue)
			}
			if got := getEnvAsDuration(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvAsDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvAsBoolAndFloat(t *testing.T) {
	t.Setenv("TEST_BOOL", "false")
	t.Setenv("TEST_FLOAT", "2.5")
	t.Setenv("TEST_FLOAT_BAD", "x")

	if getEnvAsBool("TEST_BOOL", true) {
		t.Error("getEnvAsBool() = true, want false")
	}
	if got := getEnvAsFloat("TEST_FLOAT", 1); got != 2.5 {
		t.Errorf("getEnvAsFloat() = %v, want 2.5", got)
	}
	if got := getEnvAsFloat("TEST_FLOAT_BAD", 1); got != 1 {
		t.Errorf("getEnvAsFloat() = %v, want default 1", got)
	}
}
