package boundary

import "github.com/evyataryagoni/boundary-checker/internal/models"

// CheckResult is the membership verdict for one resolved coordinate.
// Boundary points at the shared, read-only region used for the test.
type CheckResult struct {
	Coordinate models.GeoCoordinate
	Inside     bool
	Boundary   *Boundary
}

// Evaluate runs the containment test. It has no side effects and always
// yields a definite answer; inputs are expected to be validated upstream.
func Evaluate(c models.GeoCoordinate, b *Boundary) CheckResult {
	return CheckResult{
		Coordinate: c,
		Inside:     b.Contains(c),
		Boundary:   b,
	}
}
