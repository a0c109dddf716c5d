// Package main provides the API server entry point for the token trust scanner.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/token-trust-scanner/internal/adapter"
	"github.com/token-trust-scanner/internal/api"
	"github.com/token-trust-scanner/internal/chain"
	"github.com/token-trust-scanner/internal/config"
	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/market"
	"github.com/token-trust-scanner/internal/narrative"
	"github.com/token-trust-scanner/internal/ratelimit"
	"github.com/token-trust-scanner/internal/service"
	"github.com/token-trust-scanner/internal/storage"
)

func main() {
	fmt.Println("Token Trust Scanner API Server")
	log.Println("Server starting...")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Initialize structured logging
	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx := context.Background()

	// Response cache backend
	var (
		backend storage.Backend
		redis   *storage.RedisCache
	)
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redis, err = storage.NewRedisCache(&cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redis.Close()
		backend = redis
	default:
		backend = storage.NewMemoryStore()
	}

	cache := storage.NewCacheService(backend, "tts", cfg.Cache.TTL)
	if err := cache.Init(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to initialize response cache")
	}
	logger.WithField("backend", cfg.Cache.Backend).Info("Response cache initialized")

	// Outbound HTTP for market APIs
	httpClient := adapter.NewHTTPClient(cfg.HTTP, cache)
	if err := httpClient.Init(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to initialize HTTP client")
	}

	// Solana RPC with failover
	pool, err := adapter.NewRPCPool(&adapter.RPCPoolConfig{
		Endpoints:    cfg.RPCEndpoints(),
		CooldownTime: cfg.Solana.CooldownTime,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to create RPC pool")
	}
	defer pool.Close()
	solanaRPC := adapter.NewSolanaRPC(pool, cfg.Solana.Commitment)

	// RPC credit budget
	var tracker ratelimit.Tracker
	if cfg.RPCBudget.Enabled {
		trackerCfg := ratelimit.TrackerConfig{
			TotalCredits: cfg.RPCBudget.TotalCredits,
			CoreCredits:  cfg.RPCBudget.CoreCredits,
			Window:       cfg.RPCBudget.Window,
		}
		if redis != nil {
			tracker, err = ratelimit.NewRedisBudgetTracker(redis.Client(), trackerCfg)
		} else {
			tracker, err = ratelimit.NewMemoryBudgetTracker(trackerCfg)
		}
		if err != nil {
			logger.WithError(err).Fatal("Failed to create RPC budget tracker")
		}
	}
	gate := ratelimit.NewGate(tracker, ratelimit.NewCostRegistry(nil), cfg.RPCBudget.MaxWait)

	chainProvider := chain.NewProvider(solanaRPC, gate, cfg.RPCBudget.Enrichment)
	logger.WithFields(map[string]interface{}{
		"endpoints":  len(cfg.RPCEndpoints()),
		"budget":     cfg.RPCBudget.Enabled,
		"enrichment": cfg.RPCBudget.Enrichment,
	}).Info("Chain provider initialized")

	// Market data sources, DexScreener first with Jupiter as price-only fallback
	dexScreener := adapter.NewDexScreenerClient(httpClient, cfg.Market.DexScreenerBaseURL)
	jupiter := adapter.NewJupiterClient(httpClient, cfg.Market.JupiterPriceURL, cfg.Market.JupiterTokenURL)
	pumpfun := adapter.NewPumpfunClient(httpClient, cfg.Market.PumpfunEndpoints)

	fetcher := market.NewFetcher(
		[]market.Source{
			market.NewDexScreenerSource(dexScreener),
			market.NewJupiterSource(jupiter),
		},
		pumpfun,
		dexScreener,
	)

	analysis := service.NewAnalysisService(chainProvider, fetcher, narrative.NoopNarrator{})

	logger.Info("Services initialized")

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		CORSOrigin:        cfg.Server.CORSOrigin,
		APIKey:            cfg.Server.APIKey,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, analysis)
	server.RegisterMetrics("circuitBreakers", func(ctx context.Context) interface{} {
		return httpClient.Breakers().GetAllStats()
	})
	server.RegisterMetrics("rpcBudget", func(ctx context.Context) interface{} {
		return gate.GetMetrics(ctx)
	})
	server.RegisterMetrics("rpcPool", func(ctx context.Context) interface{} {
		return pool.Status()
	})

	probeCtx, cancelProbe := context.WithTimeout(ctx, 10*time.Second)
	if server.CheckReadiness(probeCtx) {
		logger.WithField("rpc", chainProvider.Endpoint()).Info("Solana RPC reachable")
	} else {
		logger.WithField("rpc", chainProvider.Endpoint()).Warn("Solana RPC not reachable yet, /ready will report 503")
	}
	cancelProbe()

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host": cfg.Server.Host,
		"port": cfg.Server.Port,
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
