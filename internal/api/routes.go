package api

import (
	"net/http"
)

// RegisterRoutes registers API routes. limit wraps the trigger endpoints.
func (h *Handler) RegisterRoutes(mux *http.ServeMux, limit func(http.Handler) http.Handler) {
	trigger := limit(http.HandlerFunc(h.Trigger))
	mux.Handle("GET /trigger/{operation}", trigger)
	mux.Handle("POST /trigger/{operation}", trigger)
	mux.Handle("GET /trigger-webhook", limit(http.HandlerFunc(h.TriggerLegacy)))

	mux.HandleFunc("GET /get_categories", h.Categories)
	mux.HandleFunc("GET /get_status_counts", h.StatusCounts)
}
