// Package server provides the HTTP server and routing for flowdash.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/dtorcivia/flowdash/internal/api"
	"github.com/dtorcivia/flowdash/internal/config"
	"github.com/dtorcivia/flowdash/internal/google"
	"github.com/dtorcivia/flowdash/internal/server/middleware"
	"github.com/dtorcivia/flowdash/internal/status"
	"github.com/dtorcivia/flowdash/internal/util"
	"github.com/dtorcivia/flowdash/internal/web"
	"github.com/dtorcivia/flowdash/internal/webhook"
)

// Version is reported by the health endpoint.
var Version = "1.0.0"

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterMaxIdle         = 10 * time.Minute
)

// Server is the main HTTP server for flowdash.
type Server struct {
	config      *config.Config
	router      *http.ServeMux
	dispatcher  *webhook.Dispatcher
	aggregator  *status.Aggregator
	rateLimiter *middleware.RateLimiter
	apiHandler  *api.Handler
	webHandler  *web.Handler
}

// New creates a new Server instance.
func New(cfg *config.Config) (*Server, error) {
	var reader status.ValuesReader
	if cfg.Sheets.Configured() {
		reader = google.NewSheetsClient(&cfg.Sheets)
	}
	return NewWithReader(cfg, reader, nil)
}

// NewWithReader creates a server with an explicit spreadsheet reader and webhook HTTP client.
// A nil reader leaves the status source unconfigured; a nil client uses the configured timeout.
func NewWithReader(cfg *config.Config, reader status.ValuesReader, httpClient *http.Client) (*Server, error) {
	dispatcher := webhook.NewDispatcher(&cfg.Webhooks, httpClient)
	aggregator := status.NewAggregator(&cfg.Sheets, reader)

	// Successful dispatches change the sheet, so refresh the snapshot afterwards
	dispatcher.OnDispatch(aggregator.RefreshHook())

	webHandler, err := web.NewHandler(dispatcher, aggregator)
	if err != nil {
		return nil, err
	}

	s := &Server{
		config:      cfg,
		router:      http.NewServeMux(),
		dispatcher:  dispatcher,
		aggregator:  aggregator,
		rateLimiter: middleware.NewRateLimiter(cfg.RateLimit, cfg.Server.TrustProxy),
		apiHandler:  api.NewHandler(dispatcher, aggregator),
		webHandler:  webHandler,
	}

	s.setupRoutes()

	return s, nil
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	// Build middleware chain (applied in reverse order)
	var handler http.Handler = s.router

	// Basic auth when a password hash is configured
	handler = middleware.BasicAuth(&s.config.Auth, "/health")(handler)

	// Recovery middleware (catches panics from handlers)
	handler = middleware.Recovery(handler)

	// Logging middleware
	handler = middleware.Logging(handler)

	// Request IDs are assigned before logging reads them
	handler = middleware.RequestID(handler)

	// Security headers
	handler = middleware.SecurityHeaders(handler)

	return handler
}

// StartBackgroundWorkers warms the status snapshot and prunes idle rate limit buckets.
func (s *Server) StartBackgroundWorkers(ctx context.Context) error {
	if s.aggregator.Configured() {
		go s.aggregator.Refresh(ctx)
	}

	if s.config.RateLimit.Enabled() {
		go func() {
			ticker := time.NewTicker(limiterCleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					s.rateLimiter.Cleanup(limiterMaxIdle)
				}
			}
		}()
	}

	util.Info("Background workers started")
	return nil
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return s.config
}

// Dispatcher returns the webhook dispatcher.
func (s *Server) Dispatcher() *webhook.Dispatcher {
	return s.dispatcher
}

// Aggregator returns the status aggregator.
func (s *Server) Aggregator() *status.Aggregator {
	return s.aggregator
}
