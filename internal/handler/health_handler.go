package handler

import (
	"net/http"

	"github.com/evyataryagoni/boundary-checker/internal/boundary"
	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// HealthHandler reports process readiness
type HealthHandler struct {
	boundary *boundary.Boundary
	session  *geocoder.Session
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(b *boundary.Boundary, sess *geocoder.Session) *HealthHandler {
	return &HealthHandler{boundary: b, session: sess}
}

// Health handles GET /health
// Degraded means lookups work but only through the fallback provider.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:           "ok",
		PrimaryAvailable: h.session.PrimaryAvailable(),
	}
	if h.boundary != nil {
		resp.BoundaryParts = h.boundary.Parts()
	}
	if !resp.PrimaryAvailable {
		resp.Status = "degraded"
	}

	respondJSON(w, http.StatusOK, resp)
}
