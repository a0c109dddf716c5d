package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	apperrors "github.com/token-trust-scanner/internal/errors"
	"github.com/token-trust-scanner/internal/logging"
	"github.com/token-trust-scanner/internal/service"
)

const serviceName = "token-trust-scanner"

// RecentTokensDisabled is returned by /api/tokens/recent
const RecentTokensDisabled = "Recent tokens endpoint is disabled until live-data source is wired"

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleReady re-probes the RPC until the first success
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready.Load() || s.CheckReadiness(r.Context()) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	doc := map[string]interface{}{
		"routes":   s.routeStats.Snapshot(),
		"analysis": s.analysis.Monitor().GetStats(),
	}
	s.metricsMu.RLock()
	for name, fn := range s.metrics {
		doc[name] = fn(r.Context())
	}
	s.metricsMu.RUnlock()
	respondJSON(w, http.StatusOK, doc)
}

func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	status := s.analysis.TestConnection(r.Context())
	s.ready.Store(status.Connected)
	respondJSON(w, http.StatusOK, status)
}

// handleTrustScore serves the full risk report for one mint
func (s *Server) handleTrustScore(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	logger := logging.FromContext(r.Context()).WithField("mint", address)

	report, err := s.analysis.Analyze(r.Context(), address)
	if err != nil {
		status, code, message, details := mapServiceError(err, "Internal server error while analyzing token")
		logger.WithError(err).WithField("status", status).Warn("Trust score request failed")
		respondError(w, status, code, message, details)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// handleRisk serves the quick deployer and holder screen
func (s *Server) handleRisk(w http.ResponseWriter, r *http.Request) {
	mint := r.URL.Query().Get("mint")
	if mint == "" {
		writeError(w, apperrors.NewMissingParameterError("mint", service.MissingMintHint))
		return
	}

	check, err := s.analysis.RiskCheck(r.Context(), mint)
	if err != nil {
		status, code, message, details := mapServiceError(err, "Risk analysis failed")
		logging.FromContext(r.Context()).WithError(err).WithField("mint", mint).Warn("Risk check failed")
		respondError(w, status, code, message, details)
		return
	}
	respondJSON(w, http.StatusOK, check)
}

func (s *Server) handleRecentTokens(w http.ResponseWriter, r *http.Request) {
	writeError(w, apperrors.NewNotImplementedError(RecentTokensDisabled))
}
