// Package api provides the HTTP API server implementation.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"

	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/models"
	"github.com/token-trust-scanner/internal/service"
)

// AnalysisServiceInterface defines the analysis operations the API exposes
type AnalysisServiceInterface interface {
	Analyze(ctx context.Context, mint string) (*models.RiskReport, error)
	RiskCheck(ctx context.Context, mint string) (*models.RiskCheck, error)
	TestConnection(ctx context.Context) service.ConnectionStatus
	Monitor() *service.PerformanceMonitor
}

// MetricsFunc reports one section of the /metrics document
type MetricsFunc func(ctx context.Context) interface{}

// Server represents the HTTP API server.
type Server struct {
	router      *mux.Router
	httpServer  *http.Server
	analysis    AnalysisServiceInterface
	config      *ServerConfig
	routeStats  *RouteStats
	rateLimiter *RateLimiter
	ready       atomic.Bool
	logger      *logging.Logger

	metricsMu sync.RWMutex
	metrics   map[string]MetricsFunc
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host              string
	Port              string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	CORSOrigin        string
	APIKey            string
	RequestsPerSecond float64
	Burst             int
}

// NewServer creates a new API server instance.
func NewServer(config *ServerConfig, analysis AnalysisServiceInterface) *Server {
	s := &Server{
		router:      mux.NewRouter(),
		analysis:    analysis,
		config:      config,
		routeStats:  NewRouteStats(),
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
		logger:      logging.GetGlobalLogger().WithComponent("api"),
		metrics:     make(map[string]MetricsFunc),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	// outermost first
	s.router.Use(RecoveryMiddleware)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(CORSMiddleware(s.config.CORSOrigin))
	s.router.Use(APIKeyMiddleware(s.config.APIKey))
	s.router.Use(RateLimitMiddleware(s.rateLimiter))
	s.router.Use(MetricsMiddleware(s.routeStats))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	get := []string{http.MethodGet, http.MethodOptions}

	s.router.HandleFunc("/health", s.handleHealth).Methods(get...)
	s.router.HandleFunc("/live", s.handleLive).Methods(get...)
	s.router.HandleFunc("/ready", s.handleReady).Methods(get...)
	s.router.HandleFunc("/metrics", s.handleMetrics).Methods(get...)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/test-connection", s.handleTestConnection).Methods(get...)
	api.HandleFunc("/trust-score/{address}", s.handleTrustScore).Methods(get...)
	api.HandleFunc("/risk", s.handleRisk).Methods(get...)
	api.HandleFunc("/tokens/recent", s.handleRecentTokens).Methods(get...)
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// RegisterMetrics adds a named section to the /metrics document
func (s *Server) RegisterMetrics(name string, fn MetricsFunc) {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	s.metrics[name] = fn
}

// CheckReadiness probes the RPC and updates the readiness flag
func (s *Server) CheckReadiness(ctx context.Context) bool {
	ok := s.analysis.TestConnection(ctx).Connected
	s.ready.Store(ok)
	return ok
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("Starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
