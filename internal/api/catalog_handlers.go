package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/tripsync/tripsync/internal/catalog"
)

// CatalogSource returns the current options catalog.
type CatalogSource interface {
	Get(ctx context.Context) (catalog.Catalog, error)
}

// CatalogHandler serves the selectable options.
type CatalogHandler struct {
	source CatalogSource
	logger *slog.Logger
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler(source CatalogSource, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{source: source, logger: logger}
}

// GetCatalog handles GET /api/catalog
func (h *CatalogHandler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c, err := h.source.Get(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load catalog", "error", err)
		writeError(w, http.StatusServiceUnavailable, "catalog unavailable")
		return
	}

	opts := c.Options()
	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, map[string]any{"options": opts, "count": len(opts)}, h.logger)
}
