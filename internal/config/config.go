// Package config provides configuration management for the token trust scanner.
// It loads configuration from environment variables and .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// PublicMainnetRPC is the rate-limited public Solana endpoint
const PublicMainnetRPC = "https://api.mainnet-beta.solana.com"

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Solana    SolanaConfig
	HTTP      HTTPConfig
	Market    MarketConfig
	Cache     CacheConfig
	Database  DatabaseConfig
	RPCBudget RPCBudgetConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port       string
	Host       string
	CORSOrigin string
	APIKey     string
}

// SolanaConfig holds RPC endpoints for the chain data provider
type SolanaConfig struct {
	RPCPrimary   string
	RPCSecondary string
	Commitment   string
	CooldownTime time.Duration
}

// HTTPConfig controls the shared outbound GET client
type HTTPConfig struct {
	Timeout          time.Duration
	CacheTTL         time.Duration
	FailureThreshold int
	Cooldown         time.Duration
}

// MarketConfig holds market API base URLs
type MarketConfig struct {
	DexScreenerBaseURL string
	JupiterPriceURL    string
	JupiterTokenURL    string
	PumpfunEndpoints   []string
}

// CacheConfig holds response cache configuration
type CacheConfig struct {
	Backend string
	TTL     time.Duration
}

// DatabaseConfig holds backing store configuration
type DatabaseConfig struct {
	Redis RedisConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// RPCBudgetConfig bounds RPC credits spent per window.
// CoreCredits is reserved for supply, holder and mint lookups.
type RPCBudgetConfig struct {
	Enabled      bool
	TotalCredits int
	CoreCredits  int
	Window       time.Duration
	MaxWait      time.Duration
	Enrichment   bool
}

// RateLimitConfig holds inbound API rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	primary := getEnv("SOLANA_RPC_URL", PublicMainnetRPC)

	config := &Config{
		Server: ServerConfig{
			Port:       getEnv("SERVER_PORT", "5001"),
			Host:       getEnv("SERVER_HOST", "127.0.0.1"),
			CORSOrigin: getEnv("CORS_ORIGIN", "*"),
			APIKey:     getEnv("API_KEY", ""),
		},
		Solana: SolanaConfig{
			RPCPrimary:   primary,
			RPCSecondary: getEnv("SOLANA_RPC_SECONDARY", ""),
			Commitment:   getEnv("SOLANA_COMMITMENT", "confirmed"),
			CooldownTime: getEnvAsDuration("SOLANA_RPC_COOLDOWN", 60*time.Second),
		},
		HTTP: HTTPConfig{
			Timeout:          getEnvAsDuration("HTTP_TIMEOUT", 8*time.Second),
			CacheTTL:         getEnvAsDuration("HTTP_CACHE_TTL", 15*time.Second),
			FailureThreshold: getEnvAsInt("HTTP_CB_FAILURE_THRESHOLD", 3),
			Cooldown:         getEnvAsDuration("HTTP_CB_COOLDOWN", 30*time.Second),
		},
		Market: MarketConfig{
			DexScreenerBaseURL: getEnv("DEXSCREENER_BASE_URL", "https://api.dexscreener.com/latest"),
			JupiterPriceURL:    getEnv("JUPITER_PRICE_URL", "https://price.jup.ag/v4/price"),
			JupiterTokenURL:    getEnv("JUPITER_TOKEN_URL", "https://tokens.jup.ag/token"),
			PumpfunEndpoints: getEnvAsList("PUMPFUN_ENDPOINTS", []string{
				"https://pump.fun/coin",
				"https://pumpportal.fun/api/coin-data",
				"https://api.pump.fun/coins",
				"https://frontend-api.pump.fun/coins",
			}),
		},
		Cache: CacheConfig{
			Backend: getEnv("CACHE_BACKEND", CacheBackendMemory),
			TTL:     getEnvAsDuration("CACHE_TTL", 15*time.Second),
		},
		Database: DatabaseConfig{
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		RPCBudget: RPCBudgetConfig{
			Enabled:      getEnvAsBool("RPC_BUDGET_ENABLED", true),
			TotalCredits: getEnvAsInt("RPC_BUDGET_TOTAL", 200),
			CoreCredits:  getEnvAsInt("RPC_BUDGET_CORE", 60),
			Window:       getEnvAsDuration("RPC_BUDGET_WINDOW", 10*time.Second),
			MaxWait:      getEnvAsDuration("RPC_BUDGET_MAX_WAIT", 2*time.Second),
			// The public endpoint cannot absorb the multi-call deployer scans.
			Enrichment: getEnvAsBool("RPC_ENRICHMENT", !strings.Contains(primary, "api.mainnet-beta.solana.com")),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: getEnvAsFloat("RATE_LIMIT_RPS", 1),
			Burst:             getEnvAsInt("RATE_LIMIT_BURST", 60),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate rejects configurations the server cannot start with
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Solana.RPCPrimary, "http") {
		return fmt.Errorf("SOLANA_RPC_URL must start with http:// or https://, got %q", c.Solana.RPCPrimary)
	}
	if c.Solana.RPCSecondary != "" && !strings.HasPrefix(c.Solana.RPCSecondary, "http") {
		return fmt.Errorf("SOLANA_RPC_SECONDARY must start with http:// or https://, got %q", c.Solana.RPCSecondary)
	}
	if c.HTTP.FailureThreshold <= 0 {
		return errors.New("HTTP_CB_FAILURE_THRESHOLD must be positive")
	}
	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}
	if c.RPCBudget.Enabled && c.RPCBudget.CoreCredits > c.RPCBudget.TotalCredits {
		return fmt.Errorf("RPC_BUDGET_CORE (%d) exceeds RPC_BUDGET_TOTAL (%d)",
			c.RPCBudget.CoreCredits, c.RPCBudget.TotalCredits)
	}
	return nil
}

// RPCEndpoints returns the configured Solana endpoints in failover order
func (c *Config) RPCEndpoints() []string {
	endpoints := []string{c.Solana.RPCPrimary}
	if c.Solana.RPCSecondary != "" {
		endpoints = append(endpoints, c.Solana.RPCSecondary)
	}
	return endpoints
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma-separated variable, dropping empty entries
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
