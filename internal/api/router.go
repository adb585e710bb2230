package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voicelink/voicelink-core/internal/alexa"
	"github.com/voicelink/voicelink-core/internal/google"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// Vendor surfaces; each requires a token issued for it
			r.With(s.requireVendor(alexa.Vendor)).Post("/alexa/directive", s.handleAlexaDirective)
			r.With(s.requireVendor(google.Vendor)).Post("/google/fulfillment", s.handleGoogleFulfillment)

			// Device read surface
			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)
				r.Get("/{id}/state", s.handleGetDeviceState)
			})

			// WebSocket (auth via bearer token or token query parameter)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
