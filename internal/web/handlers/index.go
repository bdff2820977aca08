package handlers

import (
	"net/http"

	"github.com/facemark/facemark/internal/service"
)

// IndexHandler handles descriptor index operations.
type IndexHandler struct {
	service *service.Service
}

// NewIndexHandler creates a new index handler.
func NewIndexHandler(svc *service.Service) *IndexHandler {
	return &IndexHandler{service: svc}
}

// Health reports the published index state. GET /api/v1/index/health
func (h *IndexHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.IndexHealth())
}

// Rebuild rebuilds the index synchronously and reports the new version.
// POST /api/v1/index/rebuild
func (h *IndexHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.service.RebuildNow(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, "index rebuild failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "rebuilt",
		"version":    snapshot.Version,
		"identities": len(snapshot.Entries),
	})
}
