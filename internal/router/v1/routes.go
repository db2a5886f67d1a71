package v1

import (
	"github.com/evyataryagoni/boundary-checker/internal/handler"
	"github.com/go-chi/chi/v5"
)

// SetupRoutes configures all v1 API routes
func SetupRoutes(checkHandler *handler.CheckHandler) chi.Router {
	r := chi.NewRouter()

	// GET /v1/check?address=<address>[&format=geojson]
	r.Get("/check", checkHandler.Check)

	// GET /v1/boundary
	r.Get("/boundary", checkHandler.Boundary)

	return r
}
