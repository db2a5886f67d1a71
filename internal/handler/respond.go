package handler

import (
	"encoding/json"
	"net/http"

	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	respondContent(w, statusCode, "application/json", data)
}

// respondGeoJSON writes a GeoJSON document with the given status code
func respondGeoJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	respondContent(w, statusCode, "application/geo+json", data)
}

func respondContent(w http.ResponseWriter, statusCode int, contentType string, data interface{}) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// If encoding fails, we can't change the status code since headers are already sent
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// respondError writes an error response with consistent formatting
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, models.ErrorResponse{Error: message})
}
