package geocoder

import (
	"context"

	"github.com/evyataryagoni/boundary-checker/internal/models"
)

// Provider resolves a free-text address into the single best coordinate.
//
// Implementations return ErrNotFound when the service has no match and a
// *ProviderError for every other failure. They must not retry; the Resolver
// decides what happens next.
type Provider interface {
	Name() string
	Geocode(ctx context.Context, address string) (models.GeoCoordinate, error)
}

// Status tells the presentation layer which path produced the result
type Status string

const (
	StatusPrimary      Status = "success_primary"
	StatusFallback     Status = "success_fallback"
	StatusNotFound     Status = "not_found"
	StatusFailed       Status = "failed"
	StatusInvalidInput Status = "invalid_input"
)

// Outcome values recorded per attempt
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
	OutcomeSkipped  = "skipped"
)

// Resolution describes how an address was resolved. It is returned for
// failures too so the caller can always tell which providers were tried.
type Resolution struct {
	Address    string
	Coordinate models.GeoCoordinate
	Status     Status
	Provider   string // provider whose answer is final, empty if none answered
	Attempts   []models.Attempt
}

// OK reports whether a coordinate was produced
func (r *Resolution) OK() bool {
	return r.Status == StatusPrimary || r.Status == StatusFallback
}
