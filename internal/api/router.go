package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/neuroair-core/internal/auth"
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

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.With(s.requirePermission(auth.PermStateRead)).Group(func(r chi.Router) {
				r.Get("/state", s.handleGetState)
				r.Get("/profiles", s.handleListProfiles)
				r.Get("/ws", s.handleWebSocket)
			})

			r.With(s.requirePermission(auth.PermDeviceOperate)).Route("/device", func(r chi.Router) {
				r.Post("/power", s.handleSetPower)
				r.Post("/profile", s.handleSetProfile)
				r.Post("/intensity", s.handleAdjustIntensity)
				r.Post("/emotion", s.handleEmotionResponse)
				r.Post("/routines/{name}", s.handleRunRoutine)
			})

			r.With(s.requirePermission(auth.PermVoiceDispatch)).Route("/dispatch", func(r chi.Router) {
				r.Post("/", s.handleDispatch)
				r.Post("/audio", s.handleDispatchAudio)
			})

			r.With(s.requirePermission(auth.PermHistoryRead)).Get("/history", s.handleListHistory)
			r.With(s.requirePermission(auth.PermSystemAdmin)).Post("/system/history/prune", s.handlePruneHistory)

			r.With(s.requirePermission(auth.PermPlatformAccess)).Route("/platforms/{name}", func(r chi.Router) {
				r.Post("/", s.handlePlatformRequest)
				r.Get("/entities", s.handlePlatformEntities)
			})
		})
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"device_id":  s.controller.DeviceID(),
		"ws_clients": s.hub.ClientCount(),
	})
}
