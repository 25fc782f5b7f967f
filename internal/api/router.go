package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "resource not found")
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Route("/robot", func(r chi.Router) {
				r.Get("/", s.handleRobotStatus)
				r.Get("/battery", s.handleBattery)
				r.Get("/battery/last", s.handleLastBattery)
				r.Get("/version", s.handleVersion)
				r.Get("/network", s.handleNetwork)
				r.Get("/control", s.handleControl)
			})

			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth reports server liveness and whether the robot session is up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"connection": s.robot.Status().Connection,
	})
}
