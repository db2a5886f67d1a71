package handler

import (
	"errors"
	"net/http"

	"github.com/evyataryagoni/boundary-checker/internal/geocoder"
	"github.com/evyataryagoni/boundary-checker/internal/models"
	"github.com/evyataryagoni/boundary-checker/internal/service"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// CheckHandler handles HTTP requests for address checks
// This is the handler layer - it deals with HTTP concerns only
//
// Responsibilities:
//   - Parse HTTP requests (query parameters)
//   - Call service methods with the process session
//   - Format HTTP responses (JSON or GeoJSON)
//   - Set appropriate status codes
type CheckHandler struct {
	service *service.LookupService
	session *geocoder.Session
}

// NewCheckHandler creates a new check handler. The session is shared by all
// requests so the primary availability probe runs once per process.
func NewCheckHandler(svc *service.LookupService, sess *geocoder.Session) *CheckHandler {
	return &CheckHandler{
		service: svc,
		session: sess,
	}
}

// Check handles GET /v1/check?address=<address>[&format=geojson]
func (h *CheckHandler) Check(w http.ResponseWriter, r *http.Request) {
	// Step 1: Parse query parameters
	address := r.URL.Query().Get("address")
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "geojson" {
		respondError(w, http.StatusBadRequest, "Unsupported format, use 'json' or 'geojson'")
		return
	}

	// Step 2: Call service layer
	report, err := h.service.Check(r.Context(), h.session, address)
	if err != nil {
		h.respondFailure(w, report, err)
		return
	}

	// Step 3: Return success response
	if format == "geojson" {
		respondGeoJSON(w, http.StatusOK, h.mapPayload(report))
		return
	}

	coord := report.Result.Coordinate
	respondJSON(w, http.StatusOK, models.CheckResponse{
		Address:    report.Resolution.Address,
		Inside:     report.Result.Inside,
		Coordinate: &coord,
		Status:     string(report.Resolution.Status),
		Provider:   report.Resolution.Provider,
		Message:    report.Message,
		Attempts:   report.Resolution.Attempts,
		Boundary:   h.service.Boundary().GeometryJSON(),
	})
}

// Boundary handles GET /v1/boundary
func (h *CheckHandler) Boundary(w http.ResponseWriter, r *http.Request) {
	b := h.service.Boundary()

	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(b.Bound())
	fc.Append(b.Feature())

	respondGeoJSON(w, http.StatusOK, fc)
}

// mapPayload renders the boundary and the queried point for a map layer
func (h *CheckHandler) mapPayload(report *service.Report) *geojson.FeatureCollection {
	b := h.service.Boundary()
	c := report.Result.Coordinate
	point := orb.Point{c.Longitude, c.Latitude}

	marker := geojson.NewFeature(point)
	marker.Properties["kind"] = "address"
	marker.Properties["address"] = report.Resolution.Address
	marker.Properties["inside"] = report.Result.Inside
	marker.Properties["status"] = string(report.Resolution.Status)
	marker.Properties["provider"] = report.Resolution.Provider

	fc := geojson.NewFeatureCollection()
	fc.BBox = geojson.NewBBox(b.Bound().Extend(point))
	fc.Append(b.Feature())
	fc.Append(marker)
	fc.ExtraMembers = geojson.Properties{
		"center":  []float64{c.Longitude, c.Latitude},
		"message": report.Message,
	}
	return fc
}

// respondFailure maps a lookup error onto a status code
// upstreamRetryAfter is sent when a geocoder rejected the lookup for quota
const upstreamRetryAfter = "60"

func (h *CheckHandler) respondFailure(w http.ResponseWriter, report *service.Report, err error) {
	var stageErr *service.StageError
	var exhausted *geocoder.ExhaustedError

	resp := models.ErrorResponse{
		Error:   report.Message,
		Status:  string(report.Resolution.Status),
		Details: report.Resolution.Attempts,
	}
	if errors.As(err, &stageErr) {
		resp.Stage = stageErr.Stage
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, geocoder.ErrEmptyAddress):
		resp.Error = "Missing 'address' query parameter"
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrAddressTooLong):
		status = http.StatusBadRequest
	case errors.Is(err, geocoder.ErrNotFound):
		status = http.StatusNotFound
	case errors.As(err, &exhausted):
		status = http.StatusBadGateway
		if geocoder.IsKind(exhausted, geocoder.KindRateLimited) {
			w.Header().Set("Retry-After", upstreamRetryAfter)
		}
	}

	respondJSON(w, status, resp)
}
