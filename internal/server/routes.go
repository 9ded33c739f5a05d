package server

import (
	"net/http"

	"github.com/dtorcivia/flowdash/internal/response"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status               string `json:"status"`
	Version              string `json:"version"`
	OperationsConfigured int    `json:"operations_configured"`
	Sheets               string `json:"sheets"`
}

// setupRoutes registers all HTTP routes.
func (s *Server) setupRoutes() {
	// Health check (no auth required)
	s.router.HandleFunc("GET /health", s.handleHealth)

	// Trigger and status endpoints
	s.apiHandler.RegisterRoutes(s.router, s.rateLimiter.Limit)

	// Web UI routes
	s.webHandler.RegisterRoutes(s.router)
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sheets := "not_configured"
	if s.aggregator.Configured() {
		sheets = "configured"
	}

	response.JSON(w, http.StatusOK, HealthResponse{
		Status:               "healthy",
		Version:              Version,
		OperationsConfigured: s.config.Webhooks.ConfiguredCount(),
		Sheets:               sheets,
	})
}
