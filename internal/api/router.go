package api

import (
	"net/http"
)

// Handlers groups the route handlers.
type Handlers struct {
	Match   *MatchHandler
	Catalog *CatalogHandler
	Health  *HealthHandler
	Metrics http.Handler
}

// SetupRoutes configures all API routes
func SetupRoutes(mux *http.ServeMux, h Handlers) {
	mux.HandleFunc("/api/match", h.Match.Match)
	mux.HandleFunc("/api/match/offline", h.Match.MatchOffline)
	mux.HandleFunc("/api/runs", h.Match.ListRuns)
	mux.HandleFunc("/api/runs/", h.Match.GetRun)

	if h.Catalog != nil {
		mux.HandleFunc("/api/catalog", h.Catalog.GetCatalog)
	}
	if h.Health != nil {
		mux.HandleFunc("/healthz", h.Health.Healthz)
	}
	if h.Metrics != nil {
		mux.Handle("/metrics", h.Metrics)
	}
}
