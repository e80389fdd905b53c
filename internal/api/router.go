package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
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

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// WebSocket (auth via ticket, validated in handler)
		r.Get("/ws", s.handleWebSocket)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/metrics", s.handleMetrics)
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/devices", func(r chi.Router) {
				r.Get("/", s.handleListDevices)

				r.Route("/{key}", func(r chi.Router) {
					r.Get("/", s.handleGetDevice)
					r.Get("/feedbacks", s.handleGetFeedbacks)
					r.Post("/refresh", s.handleRefreshDevice)
				})
			})

			r.Route("/bridges", func(r chi.Router) {
				r.Get("/", s.handleListBridges)

				r.Route("/{key}", func(r chi.Router) {
					r.Get("/joins", s.handleGetJoins)
					r.Post("/inject", s.handleInject)
				})
			})

			r.Route("/joinmaps", func(r chi.Router) {
				r.Get("/", s.handleListJoinMaps)

				r.Route("/{key}", func(r chi.Router) {
					r.Get("/", s.handleGetJoinMap)
					r.Put("/", s.handlePutJoinMap)
					r.Delete("/", s.handleDeleteJoinMap)
				})
			})
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
