// Package server exposes the isotope calculator over HTTP.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/IsoDist/pkg/observability"
)

// NewRouter mounts the API, health and metrics endpoints.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(observability.RequestIDMiddleware)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", Health)
	r.Handle("/metrics", observability.PrometheusHandler())

	r.Post("/distribution", h.Distribution)
	r.Route("/elements", func(r chi.Router) {
		r.Get("/", h.ListElements)
		r.Get("/{symbol}", h.GetElement)
	})

	return r
}
